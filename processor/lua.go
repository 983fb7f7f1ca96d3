package processor

import (
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	luajson "layeh.com/gopher-json"
)

type LuaResolverConfig struct {
	ScriptPath string `yaml:"script_path"`
}

// LuaResolver resolves variable values by calling a Lua script.
// The script MUST define a global function `resolve(name)` that returns:
// 1. nil when the variable is unknown
// 2. a string, number or boolean used as the value
// 3. a table, which is encoded to JSON
// Scripts can use the JSON helper through `local json = require("json")`.
type LuaResolver struct {
	proto *lua.FunctionProto
	pool  sync.Pool
}

func NewLuaResolver(cfg LuaResolverConfig) (*LuaResolver, error) {
	f, err := os.Open(cfg.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open script: %w", err)
	}
	defer f.Close()

	chunk, err := parse.Parse(f, cfg.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("cannot parse script: %w", err)
	}

	proto, err := lua.Compile(chunk, cfg.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("cannot compile script: %w", err)
	}

	r := &LuaResolver{proto: proto}

	// Build one VM up front so a script without `resolve` fails here and not
	// on the first record.
	L, err := r.newState()
	if err != nil {
		return nil, err
	}
	r.pool.Put(L)

	return r, nil
}

func (r *LuaResolver) newState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	// No 'os' or 'io': scripts get no system commands or file access.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	luajson.Preload(L)

	L.Push(L.NewFunctionFromProto(r.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("cannot run script: %w", err)
	}

	if _, ok := L.GetGlobal("resolve").(*lua.LFunction); !ok {
		L.Close()
		return nil, errors.New("script does not define a `resolve` function")
	}

	return L, nil
}

func (r *LuaResolver) getState() (*lua.LState, error) {
	if L, ok := r.pool.Get().(*lua.LState); ok {
		return L, nil
	}
	return r.newState()
}

func (r *LuaResolver) Resolve(name string) (string, bool, error) {
	L, err := r.getState()
	if err != nil {
		return "", false, err
	}
	defer r.pool.Put(L)

	err = L.CallByParam(lua.P{
		Fn:      L.GetGlobal("resolve"),
		NRet:    1,
		Protect: true,
	}, lua.LString(name))
	if err != nil {
		return "", false, fmt.Errorf("lua script error: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	return luaValueToString(ret)
}

func luaValueToString(value lua.LValue) (string, bool, error) {
	switch v := value.(type) {
	case lua.LString:
		return string(v), true, nil
	case lua.LNumber:
		return v.String(), true, nil
	case lua.LBool:
		if v {
			return "true", true, nil
		}
		return "false", true, nil
	case *lua.LTable:
		data, err := luajson.Encode(v)
		if err != nil {
			return "", false, fmt.Errorf("cannot encode table: %w", err)
		}
		return string(data), true, nil
	case *lua.LNilType:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("resolve returned unsupported type %s", value.Type())
	}
}
