package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/auth"
	pkgerrors "github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/errors"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/resilience"
)

// errNoCredentials 既没有 token 也无法生成
var errNoCredentials = errors.New("no credentials: set --token, or --tenant together with --jwt-secret")

// apiClient analytics-service HTTP 客户端
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
	retry   resilience.RetryPolicy
}

// apiError 服务端返回的统一错误
type apiError struct {
	Status int
	Body   pkgerrors.UnifiedErrorResponse
}

func (e *apiError) Error() string {
	if e.Body.ErrorCode == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Body.ErrorCode, e.Status, e.Body.Message)
}

// newAPIClient 根据配置创建客户端
func newAPIClient(v *viper.Viper) (*apiClient, error) {
	token, err := resolveToken(v)
	if err != nil {
		return nil, err
	}

	policy := resilience.DefaultRetryPolicy()
	policy.MaxRetries = v.GetInt("retries")
	policy.InitialDelay = 200 * time.Millisecond

	return &apiClient{
		baseURL: strings.TrimRight(v.GetString("server"), "/"),
		token:   token,
		http:    &http.Client{Timeout: v.GetDuration("timeout")},
		retry:   policy,
	}, nil
}

// resolveToken 优先使用显式 token，否则用共享密钥为租户签发
func resolveToken(v *viper.Viper) (string, error) {
	if token := v.GetString("token"); token != "" {
		return token, nil
	}
	tenant, secret := v.GetString("tenant"), v.GetString("jwt-secret")
	if tenant == "" || secret == "" {
		return "", errNoCredentials
	}
	return auth.NewJWTManager(secret, v.GetString("issuer"), time.Hour).GenerateToken(tenant, "churnctl", nil)
}

// do 发送请求并解码响应；仅在传输错误时重试
func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var status int
	var body []byte
	err := resilience.Retry(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}

	if status >= http.StatusBadRequest {
		apiErr := &apiError{Status: status}
		_ = json.Unmarshal(body, &apiErr.Body)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
