package service

import (
	"strings"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
)

// checkActor 身份由上游提供，这里只拒绝缺失或未知角色
func checkActor(actor entity.Actor) error {
	if actor.ID == "" {
		return newError(ErrForbidden, "missing actor identity")
	}
	if !entity.IsKnownRole(actor.Role) {
		return newError(ErrForbidden, "unknown role %q", actor.Role)
	}
	return nil
}

// requireRole 校验操作人角色
func requireRole(actor entity.Actor, action string, roles ...string) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if !actor.HasRole(roles...) {
		return newError(ErrForbidden, "role %s may not %s (allowed: %s)", actor.Role, action, strings.Join(roles, ", "))
	}
	return nil
}

// initialOrderStatus 经理下单直接生效，采购下单需审批
func initialOrderStatus(actor entity.Actor) (string, error) {
	if err := requireRole(actor, "create orders", entity.RoleManager, entity.RolePurchaser); err != nil {
		return "", err
	}
	if actor.Role == entity.RoleManager {
		return entity.OrderStatusPending, nil
	}
	return entity.OrderStatusAwaitingApproval, nil
}

// authorizeOrderEdit 经理只能改待到货的订单；采购只能改自己的订单，含已取消的（重新提交）
func authorizeOrderEdit(actor entity.Actor, po *entity.PurchaseOrder) error {
	if err := requireRole(actor, "edit orders", entity.RoleManager, entity.RolePurchaser); err != nil {
		return err
	}
	if po.Status == entity.OrderStatusDelivered {
		return newError(ErrInvalidTransition, "order %s is Delivered and can no longer be edited", po.ID)
	}
	switch actor.Role {
	case entity.RoleManager:
		switch po.Status {
		case entity.OrderStatusPending:
		case entity.OrderStatusCancelled:
			return newError(ErrInvalidTransition, "order %s is Cancelled; only its raiser may resubmit it", po.ID)
		default:
			return newError(ErrInvalidTransition, "order %s is %s; managers edit Pending orders only", po.ID, po.Status)
		}
	case entity.RolePurchaser:
		if !actor.Owns(po.RaisedByID, po.RaisedBy) {
			return newError(ErrForbidden, "order %s was raised by %s", po.ID, po.RaisedBy)
		}
	}
	return nil
}

// authorizeOrderCancel 经理可取消任意订单，采购只能取消自己的
func authorizeOrderCancel(actor entity.Actor, po *entity.PurchaseOrder) error {
	if err := requireRole(actor, "cancel orders", entity.RoleManager, entity.RolePurchaser); err != nil {
		return err
	}
	if actor.Role == entity.RolePurchaser && !actor.Owns(po.RaisedByID, po.RaisedBy) {
		return newError(ErrForbidden, "order %s was raised by %s", po.ID, po.RaisedBy)
	}
	return nil
}
