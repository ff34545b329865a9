package compute

import (
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/san-kum/partsim/internal/dynamo"
)

//go:embed shaders/*.comp
var shaderFS embed.FS

type glKernel struct {
	name    string
	program uint32
}

func (k *glKernel) Name() string { return k.name }

// OpenGLHost dispatches GLSL compute shaders over shader storage buffers.
//
// The caller owns the GL context: Init must run on the thread holding a
// current 4.3+ context, and every other method on that same thread.
type OpenGLHost struct {
	ssbos       map[uint32]uint32
	sizes       map[uint32]int
	programs    []uint32
	initialized bool
	pending     bool
}

func NewOpenGLHost() *OpenGLHost {
	return &OpenGLHost{
		ssbos: make(map[uint32]uint32),
		sizes: make(map[uint32]int),
	}
}

func (h *OpenGLHost) Name() string    { return "opengl" }
func (h *OpenGLHost) Available() bool { return h.initialized }

// Init loads GL function pointers from the current context.
func (h *OpenGLHost) Init() error {
	if h.initialized {
		return nil
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to init opengl: %v", err)
	}
	h.initialized = true
	return nil
}

// Load compiles the shader at source, a file path or the name of an
// embedded shader.
func (h *OpenGLHost) Load(source string) (Kernel, error) {
	if !h.initialized {
		return nil, fmt.Errorf("%w: opengl host not initialised", dynamo.ErrKernelLoad)
	}
	code, err := readShader(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrKernelLoad, err)
	}
	program, err := createComputeProgram(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrKernelLoad, source, err)
	}
	h.programs = append(h.programs, program)
	return &glKernel{name: source, program: program}, nil
}

func readShader(source string) (string, error) {
	data, err := os.ReadFile(source)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	name := source
	if !strings.HasSuffix(name, ".comp") {
		name += ".comp"
	}
	data, err = shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		return "", fmt.Errorf("shader %q not found", source)
	}
	return string(data), nil
}

func (h *OpenGLHost) Activate(k Kernel) error {
	gk, ok := k.(*glKernel)
	if !ok {
		return fmt.Errorf("%w: %T is not an opengl kernel", dynamo.ErrKernelLoad, k)
	}
	gl.UseProgram(gk.program)
	return nil
}

func (h *OpenGLHost) BindBuffer(slot uint32, data any, mode Access) error {
	if h.pending {
		return fmt.Errorf("%w: bind slot %d", dynamo.ErrBarrierRequired, slot)
	}
	ptr, size, err := bufferPtr(data)
	if err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}

	id, ok := h.ssbos[slot]
	if !ok {
		gl.GenBuffers(1, &id)
		h.ssbos[slot] = id
	}

	usage := uint32(gl.DYNAMIC_DRAW)
	if mode == ReadOnly {
		usage = gl.STATIC_DRAW
	}

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, id)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, ptr, usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, slot, id)
	h.sizes[slot] = size
	return nil
}

func (h *OpenGLHost) Dispatch(groups uint32) error {
	if h.pending {
		return fmt.Errorf("%w: previous dispatch not complete", dynamo.ErrBarrierRequired)
	}
	gl.DispatchCompute(groups, 1, 1)
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: gl error 0x%x", dynamo.ErrDispatch, code)
	}
	h.pending = true
	return nil
}

func (h *OpenGLHost) Barrier() error {
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
	gl.Finish()
	h.pending = false
	return nil
}

func (h *OpenGLHost) ReadBuffer(slot uint32, dst any) error {
	if h.pending {
		return fmt.Errorf("%w: read slot %d", dynamo.ErrBarrierRequired, slot)
	}
	id, ok := h.ssbos[slot]
	if !ok {
		return fmt.Errorf("compute: nothing bound at slot %d", slot)
	}
	ptr, size, err := bufferPtr(dst)
	if err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	if bound := h.sizes[slot]; size > bound {
		size = bound
	}
	if size == 0 {
		return nil
	}

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, id)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, size, ptr)
	return nil
}

func (h *OpenGLHost) Cleanup() {
	if !h.initialized {
		return
	}
	for slot, id := range h.ssbos {
		gl.DeleteBuffers(1, &id)
		delete(h.ssbos, slot)
		delete(h.sizes, slot)
	}
	for _, p := range h.programs {
		gl.DeleteProgram(p)
	}
	h.programs = nil
	h.pending = false
}

// bufferPtr returns a pointer to the first byte of data and its size.
func bufferPtr(data any) (unsafe.Pointer, int, error) {
	size := binary.Size(data)
	if size < 0 {
		return nil, 0, fmt.Errorf("unsupported buffer type %T", data)
	}
	if size == 0 {
		return nil, 0, nil
	}
	// gl.Ptr only accepts slices and pointers to scalars
	switch v := data.(type) {
	case Meta:
		return unsafe.Pointer(&v), size, nil
	case *Meta:
		return unsafe.Pointer(v), size, nil
	case []float32, []int32:
		return gl.Ptr(v), size, nil
	}
	return nil, 0, fmt.Errorf("unsupported buffer type %T", data)
}

func createComputeProgram(source string) (uint32, error) {
	content := source + "\x00"

	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(content)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile compute shader: %v", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program")
	}

	return program, nil
}
