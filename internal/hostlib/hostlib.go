// Package hostlib loads a compiled translation library and drives its
// exported initialize()/run() pair.
// The State struct here must stay field-for-field compatible with the
// struct rv_state the generated C declares; internal/emit/layout is the
// single source of truth for the offsets, and hostlib's tests pin this
// struct against them.
package hostlib

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef void (*rv_init_fn)(void *);
typedef int32_t (*rv_run_fn)(void *);

static void rv_call_init(void *fn, void *state) { ((rv_init_fn)fn)(state); }
static int32_t rv_call_run(void *fn, void *state) { return ((rv_run_fn)fn)(state); }
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// State mirrors the generated struct rv_state byte for byte.
type State struct {
	X        [32]uint64
	PC       uint64
	ResAddr  uint64
	ResValid int32
	_        [4]byte
	Instret  uint64
	Cycle    uint64
	ExitCode int32
	Halted   int32
	Mem      uintptr
	MemSize  uint64
	CsrAddr  [16]uint64
	CsrVal   [16]uint64
	CsrCount uint64
	Tracer   uintptr
}

// Library is an open translation .so with its two entry points resolved.
type Library struct {
	handle unsafe.Pointer
	init   unsafe.Pointer
	run    unsafe.Pointer
}

// Open dlopens the library at path and resolves initialize and run.
func Open(path string) (*Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, fmt.Errorf("dlopen %s: %s", path, C.GoString(C.dlerror()))
	}

	lib := &Library{handle: handle}
	var err error
	if lib.init, err = lookup(handle, "initialize"); err != nil {
		_ = lib.Close()
		return nil, err
	}
	if lib.run, err = lookup(handle, "run"); err != nil {
		_ = lib.Close()
		return nil, err
	}
	return lib, nil
}

func lookup(handle unsafe.Pointer, name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	sym := C.dlsym(handle, cname)
	if sym == nil {
		return nil, fmt.Errorf("dlsym %s: %s", name, C.GoString(C.dlerror()))
	}
	return sym, nil
}

// Initialize binds mem as the guest window and calls the library's
// initialize() over state. mem must stay alive and unmoved for as long as
// the library may touch it, so callers keep the slice reachable for the
// whole run.
func (l *Library) Initialize(state *State, mem []byte) {
	state.Mem = uintptr(unsafe.Pointer(&mem[0]))
	state.MemSize = uint64(len(mem))
	C.rv_call_init(l.init, unsafe.Pointer(state))
}

// Run enters the translated code at state.PC and returns the guest exit
// code once it halts.
func (l *Library) Run(state *State) int32 {
	return int32(C.rv_call_run(l.run, unsafe.Pointer(state)))
}

// Close dlcloses the library. The caller must not use state memory the
// library bound after Close.
func (l *Library) Close() error {
	if l.handle == nil {
		return nil
	}
	if C.dlclose(l.handle) != 0 {
		return fmt.Errorf("dlclose: %s", C.GoString(C.dlerror()))
	}
	l.handle = nil
	return nil
}
