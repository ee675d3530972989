// Package response renders the JSON envelope shared by the storefront's
// read endpoints.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greencrop/storefront/internal/presentation/http/flash"
	"github.com/greencrop/storefront/pkg/errorbank"
)

const internalMessage = "Error interno del servidor"

// Envelope is the body written by Build.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorBody     `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// Builder accumulates the pieces of an Envelope for one request.
type Builder struct {
	ctx    echo.Context
	status int
	data   any
	err    error
	meta   map[string]any
}

func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the success status code. Error responses use the
// status of the error kind unless a 4xx/5xx status is set explicitly.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// WithMessages consumes the pending flash messages into meta.messages.
// The key is always present so clients can rely on an array.
func (b *Builder) WithMessages() *Builder {
	messages := flash.Pop(b.ctx)
	if messages == nil {
		messages = []flash.Message{}
	}
	return b.WithMeta("messages", messages)
}

// Build writes the envelope.
func (b *Builder) Build() error {
	if id := b.ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		if _, set := b.meta["request_id"]; !set {
			b.WithMeta("request_id", id)
		}
	}
	if b.err != nil {
		return b.buildError()
	}
	return b.ctx.JSON(b.status, Envelope{Success: true, Data: b.data, Meta: b.meta})
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}

	body := &ErrorBody{
		Kind:    string(appErr.Kind()),
		Message: appErr.Message(),
		Fields:  appErr.Fields(),
	}
	if appErr.Kind() == errorbank.KindInternal {
		body.Message = internalMessage
	}
	return b.ctx.JSON(status, Envelope{Error: body, Meta: b.meta})
}
