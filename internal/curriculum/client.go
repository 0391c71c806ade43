// Package curriculum is the HTTP client for the curriculum API server.
package curriculum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"quest-go/internal/apitypes"
	"quest-go/internal/config"
	"quest-go/internal/uploader"
)

// maxErrorBody 限制读取错误响应体的大小。
const maxErrorBody = 64 << 10

// maxRecordBody caps a JSON record response.
const maxRecordBody = 4 << 20

// Client 封装了对课程 API 的调用，实现 uploader.AttachmentAPI。
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

var _ uploader.AttachmentAPI = (*Client)(nil)

// NewClient 根据配置创建客户端。
func NewClient(cfg config.ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return NewClientWithHTTP(cfg.BaseURL, cfg.Token, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP allows injecting a custom http.Client (tests use httptest servers).
func NewClientWithHTTP(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Upload 以 multipart 形式提交文件和 quest_id。
// 请求体长度事先算好，onProgress 按整个请求体的已发送字节数回调。
func (c *Client) Upload(ctx context.Context, questID uint, f uploader.File, onProgress uploader.ProgressFunc) (*apitypes.Attachment, error) {
	head, tail, contentType, err := multipartEnvelope(questID, f)
	if err != nil {
		return nil, err
	}

	content, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("打开文件 %s 失败: %w", f.Name, err)
	}
	defer content.Close()

	total := int64(len(head)) + f.Size + int64(len(tail))
	body := &progressReader{
		r:          io.MultiReader(bytes.NewReader(head), io.LimitReader(content, f.Size), bytes.NewReader(tail)),
		total:      total,
		onProgress: onProgress,
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/curriculum/upload", body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	var att apitypes.Attachment
	if err := c.do(req, &att); err != nil {
		return nil, fmt.Errorf("上传 %s 失败: %w", f.Name, err)
	}
	return &att, nil
}

// Delete removes one attachment.
func (c *Client) Delete(ctx context.Context, attachmentID uint) error {
	path := "/api/curriculum/attachments/" + strconv.FormatUint(uint64(attachmentID), 10)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("删除附件 %d 失败: %w", attachmentID, err)
	}
	return nil
}

// List 返回 quest 当前的附件序列，按上传顺序排列。
func (c *Client) List(ctx context.Context, questID uint) ([]apitypes.Attachment, error) {
	path := "/api/curriculum/quests/" + strconv.FormatUint(uint64(questID), 10) + "/attachments"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var list []apitypes.Attachment
	if err := c.do(req, &list); err != nil {
		return nil, fmt.Errorf("获取 quest %d 的附件失败: %w", questID, err)
	}
	return list, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a JWT and stores it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp loginResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("登录失败: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("登录响应中缺少 token")
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do 发送请求。非 2xx 响应被转换为 *apitypes.APIError。
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	data, err := readAllWithLimit(resp.Body, maxRecordBody)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &apitypes.APIError{StatusCode: resp.StatusCode}
	data, err := readAllWithLimit(resp.Body, maxErrorBody)
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var body apitypes.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}

func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeded limit of %d bytes", limit)
	}
	return data, nil
}

// multipartEnvelope 生成文件内容之前和之后的 multipart 字节，
// 这样可以流式发送文件并提前知道 Content-Length。
func multipartEnvelope(questID uint, f uploader.File) (head, tail []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err = mw.WriteField("quest_id", strconv.FormatUint(uint64(questID), 10)); err != nil {
		return nil, nil, "", fmt.Errorf("写入 quest_id 字段失败: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.Name)))
	h.Set("Content-Type", f.MimeType)
	if _, err = mw.CreatePart(h); err != nil {
		return nil, nil, "", fmt.Errorf("写入文件头失败: %w", err)
	}
	headLen := buf.Len()

	if err = mw.Close(); err != nil {
		return nil, nil, "", fmt.Errorf("结束 multipart 失败: %w", err)
	}
	all := buf.Bytes()
	head = append([]byte(nil), all[:headLen]...)
	tail = append([]byte(nil), all[headLen:]...)
	return head, tail, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// progressReader counts bytes handed to the transport.
type progressReader struct {
	r          io.Reader
	loaded     int64
	total      int64
	onProgress uploader.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.loaded, p.total)
		}
	}
	return n, err
}
