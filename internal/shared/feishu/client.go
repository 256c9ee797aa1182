package feishu

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// BotClient 飞书群自定义机器人
// 通过 webhook 推送卡片，配置了密钥时按飞书规则签名
type BotClient struct {
	webhook    string
	secret     string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewBotClient 创建机器人客户端
func NewBotClient(webhook, secret string, logger *zap.Logger) *BotClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotClient{
		webhook: webhook,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.Named("feishu"),
		now:    time.Now,
	}
}

// Notify 异步推送通知，失败只记录日志
func (c *BotClient) Notify(kind, message string) {
	card := NewNotificationCard(kind, message, c.now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.Send(ctx, card); err != nil {
			c.logger.Warn("feishu notify failed", zap.String("kind", kind), zap.Error(err))
		}
	}()
}

// Send 同步推送一张卡片
func (c *BotClient) Send(ctx context.Context, card InteractiveCard) error {
	msg := botMessage{MsgType: "interactive", Card: card}
	if c.secret != "" {
		ts := c.now().Unix()
		sign, err := Sign(c.secret, ts)
		if err != nil {
			return err
		}
		msg.Timestamp = strconv.FormatInt(ts, 10)
		msg.Sign = sign
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, respBody)
	}

	var result BotResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("decode webhook response: %w", err)
	}
	if code, msg, failed := result.failed(); failed {
		return fmt.Errorf("feishu bot error[%d]: %s", code, msg)
	}
	return nil
}

// Sign 计算签名：以 "timestamp\nsecret" 为密钥对空串做 HmacSHA256 后 base64
func Sign(secret string, timestamp int64) (string, error) {
	key := fmt.Sprintf("%d\n%s", timestamp, secret)
	mac := hmac.New(sha256.New, []byte(key))
	if _, err := mac.Write(nil); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
