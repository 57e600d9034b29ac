package luapp

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// handler wraps the optional user-supplied message callback: a Lua
// file that evaluates to a function receiving (message, ...) for the
// messages "init", "beforemeta", "aftermeta" and "filedone".
type handler struct {
	rt *luaRuntime
	fn lua.LValue
}

// loadHandler evaluates the handler file in the shared interpreter and
// keeps the callable it returns.
func loadHandler(rt *luaRuntime, path string) (*handler, error) {
	L := rt.state
	top := L.GetTop()
	defer L.SetTop(top)

	fn, err := L.LoadFile(path)
	if err != nil {
		return nil, runtimeError(path, err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, runtimeError(path, err)
	}
	ret := L.Get(-1)
	if ret.Type() != lua.LTFunction {
		return nil, &Error{
			Filename:  path,
			Sender:    "Runtime",
			OrigError: fmt.Errorf("Handler did not return a function (got %s).", ret.Type().String()),
		}
	}
	return &handler{rt: rt, fn: ret}, nil
}

// call invokes the handler with a message and arguments, returning all
// return values.
func (h *handler) call(message string, args ...lua.LValue) ([]lua.LValue, error) {
	L := h.rt.state
	base := L.GetTop()
	L.Push(h.fn)
	L.Push(lua.LString(message))
	for _, a := range args {
		L.Push(a)
	}
	if err := L.PCall(len(args)+1, lua.MultRet, nil); err != nil {
		return nil, &Error{
			Sender:    "Runtime",
			OrigError: fmt.Errorf("Handler '%s' message failed: %s", message, err.Error()),
		}
	}
	var rets []lua.LValue
	for i := base + 1; i <= L.GetTop(); i++ {
		rets = append(rets, L.Get(i))
	}
	L.SetTop(base)
	return rets, nil
}

// onInit hands the handler the mutable path list and reads back any
// additions or removals.
func (h *handler) onInit(paths []string) ([]string, error) {
	L := h.rt.state
	tbl := L.NewTable()
	for _, p := range paths {
		tbl.Append(lua.LString(p))
	}
	if _, err := h.call("init", tbl); err != nil {
		return nil, err
	}
	var out []string
	for i := 1; ; i++ {
		v := tbl.RawGetInt(i)
		if v == lua.LNil {
			break
		}
		out = append(out, lua.LVAsString(v))
	}
	return out, nil
}

func (h *handler) onBeforeMeta(path string, env *lua.LTable) error {
	_, err := h.call("beforemeta", lua.LString(path), env)
	return err
}

// onAfterMeta lets the handler replace the produced output. Any
// non-nil return other than a string is an error.
func (h *handler) onAfterMeta(path, out string) (string, error) {
	rets, err := h.call("aftermeta", lua.LString(path), lua.LString(out))
	if err != nil {
		return "", err
	}
	if len(rets) == 0 || rets[0] == lua.LNil {
		return out, nil
	}
	if s, ok := rets[0].(lua.LString); ok {
		return string(s), nil
	}
	return "", &Error{
		Filename:  path,
		Sender:    "Runtime",
		OrigError: fmt.Errorf("Handler 'aftermeta' message must return a string or nil (got %s).", rets[0].Type().String()),
	}
}

func (h *handler) onFileDone(path, outputPath string) error {
	_, err := h.call("filedone", lua.LString(path), lua.LString(outputPath))
	return err
}
