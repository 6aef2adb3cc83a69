// Package internalapi cho phép worker và hook gọi các operation CRUD
// như một HTTP client, nhưng bằng function call trực tiếp vào service
// pipeline thay vì đi qua transport. Request được tổng hợp từ method,
// path, body và session; response có dạng thống nhất để caller đọc
// không phụ thuộc resource.
package internalapi

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
)

// Request là một request tổng hợp gửi vào internal API.
type Request struct {
	Method string
	Path   string
	Body   []byte
	// Session của caller, nil nghĩa là system call không gắn user
	Session *authsvc.AuthSession
	// Params trích từ các segment :tên trong pattern, dispatcher điền
	Params map[string]string
}

// Response là kết quả thống nhất của một internal call.
type Response struct {
	StatusCode int
	Data       interface{}
}

// HandlerFunc xử lý một internal request đã match route.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

type route struct {
	method   string
	segments []string
	handler  HandlerFunc
}

var (
	routesMu sync.RWMutex
	routes   []route
)

// Register đăng ký một handler cho cặp method + pattern.
// Pattern dùng segment :tên cho tham số, ví dụ "/files/:id".
func Register(method, pattern string, handler HandlerFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, route{
		method:   strings.ToUpper(method),
		segments: splitPath(pattern),
		handler:  handler,
	})
}

// Reset xóa toàn bộ route đã đăng ký, dùng trong test.
func Reset() {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = nil
}

// Do dispatch một internal request vào handler đã đăng ký.
// Không route nào match thì trả ErrNotFound.
func Do(ctx context.Context, method, path string, body []byte, session *authsvc.AuthSession) (*Response, error) {
	method = strings.ToUpper(method)
	segments := splitPath(path)

	routesMu.RLock()
	defer routesMu.RUnlock()
	for _, r := range routes {
		if r.method != method {
			continue
		}
		params, ok := matchSegments(r.segments, segments)
		if !ok {
			continue
		}
		return r.handler(ctx, &Request{
			Method:  method,
			Path:    path,
			Body:    body,
			Session: session,
			Params:  params,
		})
	}
	return nil, common.ErrNotFound
}

// DoJSON serialize body thành JSON rồi gọi Do.
func DoJSON(ctx context.Context, method, path string, body interface{}, session *authsvc.AuthSession) (*Response, error) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, common.NewError(
				common.ErrCodeValidationFormat,
				"Không serialize được body của internal request",
				common.StatusInternalServerError,
				err,
			)
		}
	}
	return Do(ctx, method, path, raw, session)
}

// DecodeBody parse body JSON vào dto rồi chạy validator như handler HTTP.
func DecodeBody(req *Request, dto interface{}) error {
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, dto); err != nil {
			return common.NewError(
				common.ErrCodeValidationFormat,
				"Body của internal request không phải JSON hợp lệ",
				common.StatusBadRequest,
				err,
			)
		}
	}
	if err := global.Validate.Struct(dto); err != nil {
		return common.NewError(
			common.ErrCodeValidationInput,
			"Body của internal request không qua được validation: "+err.Error(),
			common.StatusUnprocessable,
			err,
		)
	}
	return nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// matchSegments so khớp path với pattern, trả params trích được.
func matchSegments(pattern, actual []string) (map[string]string, bool) {
	if len(pattern) != len(actual) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if params == nil {
				params = map[string]string{}
			}
			params[seg[1:]] = actual[i]
			continue
		}
		if seg != actual[i] {
			return nil, false
		}
	}
	return params, true
}
