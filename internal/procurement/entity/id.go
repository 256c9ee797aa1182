package entity

import (
	"strings"

	"github.com/google/uuid"
)

// ID 前缀
const (
	PrefixOrder    = "PO"
	PrefixIntent   = "PI"
	PrefixIssuance = "ISS"
	PrefixMaterial = "M"
	PrefixVendor   = "V"
	PrefixSite     = "S"
	PrefixLineItem = "LI"
	PrefixActivity = "ACT"
)

// NewID 生成带业务前缀的ID，如 PO-3F9A1C0B7E2D
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:12])
}
