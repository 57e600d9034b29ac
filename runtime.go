package luapp

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// literalState is a bare interpreter used for decoding string literals
// and for compile probes. It never executes user code beyond literal
// expressions.
var literalState = lua.NewState(lua.Options{SkipOpenLibs: true})

// luaCompiles reports whether src compiles as a Lua chunk.
func luaCompiles(src string) bool {
	_, err := literalState.LoadString(src)
	return err == nil
}

// decodeLuaString decodes a short-string literal by handing the
// representation to the host's own string parser.
func decodeLuaString(rep string) (string, error) {
	L := literalState
	top := L.GetTop()
	defer L.SetTop(top)

	fn, err := L.LoadString("return " + rep)
	if err != nil {
		return "", err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return "", err
	}
	s, ok := L.Get(-1).(lua.LString)
	if !ok {
		return "", fmt.Errorf("not a string literal")
	}
	return string(s), nil
}

// luaRuntime owns the interpreter that executes metaprograms. All
// files share one interpreter; isolation comes from a fresh
// environment table per file, shallow-copied from a baseline, so
// mutations by one file's metaprogram do not leak to another.
type luaRuntime struct {
	state    *lua.LState
	baseline *lua.LTable
	debug    bool
}

func newLuaRuntime(debug bool) *luaRuntime {
	rt := &luaRuntime{
		state: lua.NewState(),
		debug: debug,
	}

	baseline := rt.state.NewTable()
	rt.state.G.Global.ForEach(func(k, v lua.LValue) {
		baseline.RawSet(k, v)
	})
	rt.baseline = baseline

	rt.registerBase("printf", rt.builtinPrintf)
	rt.registerBase("fileExists", builtinFileExists)
	rt.registerBase("getFileContents", builtinGetFileContents)
	return rt
}

func (rt *luaRuntime) close() {
	rt.state.Close()
}

func (rt *luaRuntime) registerBase(name string, fn lua.LGFunction) {
	rt.baseline.RawSetString(name, rt.state.NewFunction(fn))
}

// newFileEnv builds the environment one metaprogram runs under: a
// shallow copy of the baseline plus the sink functions bound to this
// file's output buffer.
func (rt *luaRuntime) newFileEnv(out *strings.Builder) *lua.LTable {
	L := rt.state
	env := L.NewTable()
	rt.baseline.ForEach(func(k, v lua.LValue) {
		env.RawSet(k, v)
	})
	env.RawSetString("_G", env)

	env.RawSetString("outputLua", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		for i := 1; i <= top; i++ {
			s, ok := L.Get(i).(lua.LString)
			if !ok {
				L.RaiseError("outputLua() only takes strings, got %s.", L.Get(i).Type().String())
			}
			out.WriteString(string(s))
		}
		return 0
	}))

	env.RawSetString("outputValue", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		if top == 0 {
			// A call like outputValue(f()) where f returns nothing
			// still writes nil into the output.
			out.WriteString("nil")
			return 0
		}
		for i := 1; i <= top; i++ {
			s, err := Serialize(L.Get(i), rt.debug)
			if err != nil {
				L.RaiseError("%s", err.Error())
			}
			out.WriteString(s)
		}
		return 0
	}))

	env.RawSetString("run", L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		fn, err := L.LoadFile(path)
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
		rt.setfenv(fn, env)
		base := L.GetTop()
		L.Push(fn)
		L.Call(0, lua.MultRet)
		return L.GetTop() - base
	}))

	return env
}

// execute compiles the metaprogram under the given chunk name (the
// path of the .meta. file, so error locations point there) and runs it
// in env.
func (rt *luaRuntime) execute(chunkName, meta string, env *lua.LTable) error {
	L := rt.state
	fn, err := L.Load(strings.NewReader(meta), chunkName)
	if err != nil {
		return runtimeError(chunkName, err)
	}
	rt.setfenv(fn, env)
	L.Push(fn)
	if err := L.PCall(0, 0, nil); err != nil {
		return runtimeError(chunkName, err)
	}
	return nil
}

func (rt *luaRuntime) setfenv(fn *lua.LFunction, env *lua.LTable) {
	L := rt.state
	L.Push(L.GetGlobal("setfenv"))
	L.Push(fn)
	L.Push(env)
	L.Call(2, 0)
}

func (rt *luaRuntime) builtinPrintf(L *lua.LState) int {
	top := L.GetTop()
	format := L.GetField(L.GetGlobal("string"), "format")
	L.Push(format)
	for i := 1; i <= top; i++ {
		L.Push(L.Get(i))
	}
	L.Call(top, 1)
	fmt.Print(lua.LVAsString(L.Get(-1)))
	return 0
}

func builtinFileExists(L *lua.LState) int {
	_, err := os.Stat(L.CheckString(1))
	L.Push(lua.LBool(err == nil))
	return 1
}

func builtinGetFileContents(L *lua.LState) int {
	data, err := os.ReadFile(L.CheckString(1))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(data))
	return 1
}

var (
	// "path:12: message" as produced for runtime errors.
	errLocColon = regexp.MustCompile(`^(.*):(\d+): ?(.*)$`)
	// "path line:12(column:3) near ...": the compile error shape.
	errLocLine = regexp.MustCompile(`line:(\d+)`)
)

// runtimeError turns an interpreter error into a located Error against
// the metaprogram file.
func runtimeError(chunkName string, err error) error {
	msg := err.Error()
	if apiErr, ok := err.(*lua.ApiError); ok {
		msg = lua.LVAsString(apiErr.Object)
		if msg == "" {
			msg = apiErr.Error()
		}
	}

	line := 0
	firstLine := msg
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	if m := errLocColon.FindStringSubmatch(firstLine); m != nil && strings.HasPrefix(m[1], chunkName) {
		line, _ = strconv.Atoi(m[2])
		msg = m[3]
	} else if m := errLocLine.FindStringSubmatch(firstLine); m != nil {
		line, _ = strconv.Atoi(m[1])
	}

	return &Error{
		Filename:  chunkName,
		Line:      line,
		Sender:    "Runtime",
		OrigError: fmt.Errorf("%s", msg),
	}
}
