// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vrs/internal/color"
	"github.com/gogpu/vrs/internal/contrast"
)

//go:embed shaders/contrast_adaptive.wgsl
var contrastShaderWGSL string

// Kernel flag bits, mirrored in contrast_adaptive.wgsl.
const (
	flagWeberFechner uint32 = 1 << iota
	flagMotion
	flagQuarter
)

// contrastWorkgroupSize is the edge of the 2D workgroup in tiles.
const contrastWorkgroupSize = 8

// contrastParamsSize is the byte size of the Params uniform.
const contrastParamsSize = 48

// fenceTimeout bounds the wait for one classification dispatch.
const fenceTimeout = 5 * time.Second

// ContrastJob is one frame of classification input.
type ContrastJob struct {
	Width, Height int
	Stride        int
	Pixels        []uint8

	// TileSize is the rate image tile edge in pixels.
	TileSize int

	// Velocity is interleaved x, y motion; nil disables motion regardless
	// of Params.Motion.
	VelWidth, VelHeight int
	Velocity            []float32

	Params contrast.Params
}

// Tiles returns the rate grid size of the job.
func (j *ContrastJob) Tiles() (tx, ty int) {
	return (j.Width + j.TileSize - 1) / j.TileSize, (j.Height + j.TileSize - 1) / j.TileSize
}

// ContrastDispatcher runs the contrast adaptive kernel through wgpu/hal.
//
// Each Dispatch uploads the frame, runs one compute pass with one
// invocation per tile, waits on a fence and reads the rate codes back.
type ContrastDispatcher struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	lut []byte
}

// NewContrastDispatcher compiles the kernel on device.
func NewContrastDispatcher(device hal.Device, queue hal.Queue) (*ContrastDispatcher, error) {
	d := &ContrastDispatcher{device: device, queue: queue, lut: packLUT()}
	if err := d.createPipeline(); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

func (d *ContrastDispatcher) createPipeline() error {
	var err error
	d.shader, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "vrs_contrast_adaptive",
		Source: hal.ShaderSource{WGSL: contrastShaderWGSL},
	})
	if err != nil {
		return fmt.Errorf("compile contrast shader: %w", err)
	}

	d.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "vrs_contrast_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create contrast bind group layout: %w", err)
	}

	d.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "vrs_contrast_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create contrast pipeline layout: %w", err)
	}

	d.pipeline, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "vrs_contrast_pipeline", Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: d.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create contrast compute pipeline: %w", err)
	}
	return nil
}

// Destroy releases pipeline objects. The device is not owned.
func (d *ContrastDispatcher) Destroy() {
	if d.device == nil {
		return
	}
	if d.pipeline != nil {
		d.device.DestroyComputePipeline(d.pipeline)
		d.pipeline = nil
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
	if d.shader != nil {
		d.device.DestroyShaderModule(d.shader)
		d.shader = nil
	}
}

// Dispatch classifies job and writes one rate code per tile into dst,
// row-major with the given stride. dst is fully written when Dispatch
// returns nil.
func (d *ContrastDispatcher) Dispatch(job *ContrastJob, dst []uint8, stride int) error {
	tx, ty := job.Tiles()
	if tx <= 0 || ty <= 0 {
		return fmt.Errorf("empty tile grid for %dx%d frame", job.Width, job.Height)
	}
	if len(dst) < (ty-1)*stride+tx {
		return fmt.Errorf("rate buffer holds %d bytes, need %d", len(dst), (ty-1)*stride+tx)
	}

	pixels := packPixels(job)
	velocity, vw, vh := packVelocity(job)
	params := packContrastParams(job, tx, ty, vw, vh)
	ratesSize := uint64(tx * ty * 4) //nolint:gosec // tile counts are small

	bufs := &contrastBuffers{device: d.device}
	defer bufs.destroy()

	uniform, err := bufs.create("vrs_params", contrastParamsSize, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	pixelBuf, err := bufs.create("vrs_pixels", uint64(len(pixels)), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	lutBuf, err := bufs.create("vrs_srgb_lut", uint64(len(d.lut)), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	velBuf, err := bufs.create("vrs_velocity", uint64(len(velocity)), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	rateBuf, err := bufs.create("vrs_rates", ratesSize, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	staging, err := bufs.create("vrs_rates_staging", ratesSize, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	d.queue.WriteBuffer(uniform, 0, params)
	d.queue.WriteBuffer(pixelBuf, 0, pixels)
	d.queue.WriteBuffer(lutBuf, 0, d.lut)
	d.queue.WriteBuffer(velBuf, 0, velocity)

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "vrs_contrast_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniform.NativeHandle(), Offset: 0, Size: contrastParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: pixelBuf.NativeHandle(), Offset: 0, Size: uint64(len(pixels))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: lutBuf.NativeHandle(), Offset: 0, Size: uint64(len(d.lut))}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: velBuf.NativeHandle(), Offset: 0, Size: uint64(len(velocity))}},
			{Binding: 4, Resource: gputypes.BufferBinding{Buffer: rateBuf.NativeHandle(), Offset: 0, Size: ratesSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create contrast bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bg)

	groupsX := uint32((tx + contrastWorkgroupSize - 1) / contrastWorkgroupSize) //nolint:gosec // small
	groupsY := uint32((ty + contrastWorkgroupSize - 1) / contrastWorkgroupSize) //nolint:gosec // small
	slogger().Debug("vrs-gpu: dispatch",
		"frame", fmt.Sprintf("%dx%d", job.Width, job.Height),
		"tiles", fmt.Sprintf("%dx%d", tx, ty),
		"workgroups", fmt.Sprintf("%dx%d", groupsX, groupsY))

	readback, err := d.submit(bg, rateBuf, staging, ratesSize, groupsX, groupsY)
	if err != nil {
		return err
	}
	unpackRates(readback, tx, ty, dst, stride)
	return nil
}

// submit encodes the compute pass and the copy to the staging buffer,
// waits for the fence and returns the staging contents.
func (d *ContrastDispatcher) submit(bg hal.BindGroup, rateBuf, staging hal.Buffer, size uint64, gx, gy uint32) ([]byte, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "vrs_contrast_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vrs_contrast"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "vrs_contrast_pass"})
	pass.SetPipeline(d.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(gx, gy, 1)
	pass.End()

	encoder.CopyBufferToBuffer(rateBuf, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}

	readback := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return readback, nil
}

type contrastBuffers struct {
	device hal.Device
	bufs   []hal.Buffer
}

func (b *contrastBuffers) create(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	b.bufs = append(b.bufs, buf)
	return buf, nil
}

func (b *contrastBuffers) destroy() {
	for _, buf := range b.bufs {
		b.device.DestroyBuffer(buf)
	}
	b.bufs = nil
}

// packPixels copies the frame into a tightly packed u32-per-pixel buffer.
// RGBA8 bytes in memory order read as r | g<<8 | b<<16 | a<<24.
func packPixels(job *ContrastJob) []byte {
	row := job.Width * 4
	if job.Stride == row {
		return job.Pixels[:row*job.Height]
	}
	out := make([]byte, row*job.Height)
	for y := range job.Height {
		copy(out[y*row:(y+1)*row], job.Pixels[y*job.Stride:])
	}
	return out
}

// packVelocity returns the velocity bytes and dimensions. Storage buffers
// must not be empty, so a frame without motion binds a single zero vector.
func packVelocity(job *ContrastJob) ([]byte, int, int) {
	if job.Velocity == nil || !job.Params.Motion || job.VelWidth <= 0 || job.VelHeight <= 0 {
		return make([]byte, 8), 1, 1
	}
	n := job.VelWidth * job.VelHeight * 2
	out := make([]byte, n*4)
	for i, v := range job.Velocity[:n] {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out, job.VelWidth, job.VelHeight
}

func packContrastParams(job *ContrastJob, tx, ty, vw, vh int) []byte {
	p := job.Params
	var flags uint32
	if p.WeberFechner {
		flags |= flagWeberFechner
	}
	if p.Motion && job.Velocity != nil {
		flags |= flagMotion
	}
	if p.Quarter {
		flags |= flagQuarter
	}

	out := make([]byte, contrastParamsSize)
	u := []uint32{
		uint32(job.Width), uint32(job.Height), uint32(job.TileSize), //nolint:gosec // frame dimensions fit uint32
		uint32(tx), uint32(ty), uint32(vw), uint32(vh), flags, //nolint:gosec // grid dimensions fit uint32
	}
	for i, v := range u {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	f := []float32{p.Threshold, p.K, p.AmbientLuma, p.WeberFechnerConstant}
	for i, v := range f {
		binary.LittleEndian.PutUint32(out[32+i*4:], math.Float32bits(v))
	}
	return out
}

func packLUT() []byte {
	lut := color.Table()
	out := make([]byte, len(lut)*4)
	for i, v := range lut {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// unpackRates narrows the u32 codes written by the kernel into byte rows.
func unpackRates(src []byte, tx, ty int, dst []uint8, stride int) {
	for y := range ty {
		for x := range tx {
			i := (y*tx + x) * 4
			dst[y*stride+x] = uint8(binary.LittleEndian.Uint32(src[i:]) & 0xFF) //nolint:gosec // masked
		}
	}
}
