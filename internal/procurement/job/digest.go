package job

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// LowStockSource 低库存查询
type LowStockSource interface {
	LowStock(ctx context.Context) ([]entity.InventoryItem, error)
}

// LowStockDigest 低库存汇总提醒
type LowStockDigest struct {
	source   LowStockSource
	notifier service.Notifier
	logger   *zap.Logger
	timeout  time.Duration
}

// NewLowStockDigest 创建汇总任务
func NewLowStockDigest(source LowStockSource, notifier service.Notifier, logger *zap.Logger) *LowStockDigest {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockDigest{
		source:   source,
		notifier: notifier,
		logger:   logger.Named("digest"),
		timeout:  time.Minute,
	}
}

// Run 执行一次，返回低库存物料数；没有低库存时不发通知
func (d *LowStockDigest) Run(ctx context.Context) (int, error) {
	items, err := d.source.LowStock(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	d.notifier.Notify(service.NotifyWarning, DigestMessage(items))
	return len(items), nil
}

// DigestMessage 汇总文案
func DigestMessage(items []entity.InventoryItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		name := item.MaterialID
		if item.Material != nil {
			name = item.Material.Name
		}
		parts = append(parts, fmt.Sprintf("%s (%s %s)", name, strconv.FormatFloat(item.Quantity, 'f', -1, 64), item.Unit))
	}
	return fmt.Sprintf("%d materials at or below reorder threshold: %s", len(items), strings.Join(parts, ", "))
}

// Schedule 按 cron 表达式注册并启动，调用方负责 Stop
func (d *LowStockDigest) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		n, err := d.Run(ctx)
		if err != nil {
			d.logger.Error("low stock digest failed", zap.Error(err))
			return
		}
		d.logger.Info("low stock digest sent", zap.Int("items", n))
	})
	if err != nil {
		return nil, fmt.Errorf("register low stock digest %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
