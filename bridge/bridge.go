// Package bridge exposes the session to page and menu scripts.
// It uses the goja JavaScript engine and installs the small slice of the
// extension API the selection engine talks through: chrome.runtime.sendMessage
// for the command channel and chrome.storage.sync for the settings store.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dop251/goja"

	"github.com/chrisuehlinger/multiselect/loop"
	"github.com/chrisuehlinger/multiselect/session"
	"github.com/chrisuehlinger/multiselect/settings"
)

// Handler answers command channel messages. *session.Session implements it.
type Handler interface {
	Handle(msg session.Message) session.Response
}

// Runtime wraps a goja runtime bound to one session. Scripts run on the
// session's loop, and callbacks are delivered as later loop tasks.
type Runtime struct {
	vm       *goja.Runtime
	loop     *loop.Loop
	handler  Handler
	settings settings.Store
	logger   *slog.Logger
	errors   []error
}

// New creates a runtime. settings may be nil, in which case chrome.storage
// is not installed.
func New(l *loop.Loop, handler Handler, prefs settings.Store, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{
		vm:       goja.New(),
		loop:     l,
		handler:  handler,
		settings: prefs,
		logger:   logger.With("component", "bridge"),
	}
	r.setupConsole()
	r.setupChrome()
	return r
}

// VM returns the underlying goja runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// Errors returns every error raised by executed scripts.
func (r *Runtime) Errors() []error {
	return append([]error(nil), r.errors...)
}

// Execute runs code and returns its completion value. It must be called on
// the loop.
func (r *Runtime) Execute(code string) (result goja.Value, err error) {
	// Recover from panics in the goja parser/runtime
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script execution panic: %v", p)
			r.errors = append(r.errors, err)
		}
	}()

	result, err = r.vm.RunString(code)
	if err != nil {
		r.errors = append(r.errors, err)
		r.logger.Warn("script error", "error", err)
	}
	return result, err
}

// Eval runs code on the loop and returns its exported completion value.
func (r *Runtime) Eval(ctx context.Context, code string) (any, error) {
	var (
		out any
		err error
	)
	callErr := r.loop.Call(ctx, func() {
		var v goja.Value
		v, err = r.Execute(code)
		if err == nil && v != nil {
			out = v.Export()
		}
	})
	if callErr != nil {
		return nil, callErr
	}
	return out, err
}

func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()
	logAt := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			r.logger.Log(context.Background(), level, formatArgs(call.Arguments))
			return goja.Undefined()
		}
	}
	console.Set("log", logAt(slog.LevelInfo))
	console.Set("info", logAt(slog.LevelInfo))
	console.Set("warn", logAt(slog.LevelWarn))
	console.Set("error", logAt(slog.LevelError))
	console.Set("debug", logAt(slog.LevelDebug))
	r.vm.Set("console", console)
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

func (r *Runtime) setupChrome() {
	chrome := r.vm.NewObject()

	runtime := r.vm.NewObject()
	runtime.Set("lastError", goja.Undefined())
	runtime.Set("sendMessage", r.sendMessage)
	chrome.Set("runtime", runtime)

	if r.settings != nil {
		storage := r.vm.NewObject()
		area := r.vm.NewObject()
		area.Set("get", r.storageGet)
		area.Set("set", r.storageSet)
		storage.Set("sync", area)
		chrome.Set("storage", storage)
	}

	r.vm.Set("chrome", chrome)
}

// sendMessage(message, callback) delivers message to the handler. message
// may be an object with a type field or a bare type string.
func (r *Runtime) sendMessage(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 1 {
		panic(r.vm.NewTypeError("sendMessage requires a message"))
	}
	msg := session.Message{Type: messageType(call.Argument(0))}
	resp := r.handler.Handle(msg)

	payload := map[string]any{"ok": resp.OK}
	if resp.Selections != nil {
		texts := make([]any, len(resp.Selections))
		for i, text := range resp.Selections {
			texts[i] = text
		}
		payload["selections"] = texts
	}
	if resp.Error != "" {
		payload["error"] = resp.Error
	}
	r.deliver(call.Argument(1), resp.Error, r.vm.ToValue(payload))
	return goja.Undefined()
}

func messageType(v goja.Value) string {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	if obj, ok := v.(*goja.Object); ok {
		t := obj.Get("type")
		if t == nil || goja.IsUndefined(t) {
			return ""
		}
		return t.String()
	}
	return v.String()
}

// storageGet(keys, callback) reads settings. keys may be a string, an array
// of strings, an object of defaults, or null for everything.
func (r *Runtime) storageGet(call goja.FunctionCall) goja.Value {
	keysArg := call.Argument(0)
	var (
		keys     []string
		defaults map[string]any
	)
	switch exported := keysArg.Export().(type) {
	case nil:
	case string:
		keys = []string{exported}
	case []any:
		for _, k := range exported {
			keys = append(keys, fmt.Sprint(k))
		}
	case map[string]any:
		defaults = exported
		for k := range exported {
			keys = append(keys, k)
		}
	}
	if keys != nil && len(keys) == 0 {
		r.deliver(call.Argument(1), "", r.vm.NewObject())
		return goja.Undefined()
	}

	values := r.settings.Get(keys...)
	for k, v := range defaults {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}
	r.deliver(call.Argument(1), "", r.vm.ToValue(values))
	return goja.Undefined()
}

// storageSet(items, callback) writes settings.
func (r *Runtime) storageSet(call goja.FunctionCall) goja.Value {
	items, ok := call.Argument(0).Export().(map[string]any)
	if !ok {
		panic(r.vm.NewTypeError("storage.sync.set requires an object"))
	}
	var errMsg string
	if err := r.settings.Set(items); err != nil {
		r.logger.Warn("settings write failed", "error", err)
		errMsg = err.Error()
	}
	r.deliver(call.Argument(1), errMsg, goja.Undefined())
	return goja.Undefined()
}

// deliver schedules callback(arg) as a later loop task. errMsg, when set, is
// exposed as chrome.runtime.lastError for the duration of the callback.
func (r *Runtime) deliver(callback goja.Value, errMsg string, arg goja.Value) {
	fn, ok := goja.AssertFunction(callback)
	if !ok {
		return
	}
	r.loop.Post(func() {
		runtime := r.vm.Get("chrome").ToObject(r.vm).Get("runtime").ToObject(r.vm)
		if errMsg != "" {
			lastError := r.vm.NewObject()
			lastError.Set("message", errMsg)
			runtime.Set("lastError", lastError)
			defer runtime.Set("lastError", goja.Undefined())
		}
		if _, err := fn(goja.Undefined(), arg); err != nil {
			r.errors = append(r.errors, err)
			r.logger.Warn("callback error", "error", err)
		}
	})
}
