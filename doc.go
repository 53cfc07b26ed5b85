// Package frameloop drives a GPU device through its lifetime and renders
// frames to a window surface.
//
// # Overview
//
// frameloop owns the four pieces every windowed GPU program needs:
//   - GraphicsContext: adapter, device and queue, created once per process
//   - PresentationSurface: the configured window surface and its chain of
//     presentable images, rebuilt on resize or loss
//   - PipelineSet: render pipelines built once from SPIR-V blobs
//   - FrameRenderer: acquire, record, submit and present one frame
//
// State combines them for the common single-window case.
//
// # Quick Start
//
//	backend, _ := hal.SelectBestBackend()
//	st, err := frameloop.NewState(backend, target,
//	    frameloop.SurfaceDescriptor{Width: 800, Height: 600},
//	    map[frameloop.PipelineKey]frameloop.ShaderBinaries{
//	        frameloop.PipelineDefault: {Vertex: vs, Fragment: fs},
//	    })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	input := &frameloop.InputState{}
//	for running {
//	    if err := st.Render(input); err != nil {
//	        log.Fatal(err) // only fatal errors reach here
//	    }
//	}
//
// # Errors
//
// Every frame failure is classified by Classify:
//   - SeverityDeferred: the chain was lost and rebuilt, the frame was skipped
//   - SeveritySkip: a transient presentation error, the frame was skipped
//   - SeverityFatal: out of memory or device lost, rendering must stop
//   - SeverityBuildFatal: no device or a shader that cannot be linked
//
// # Threading
//
// All rendering happens on one goroutine. State.RequestResize is the only
// method safe to call from other goroutines; the resize is applied before
// the next frame acquires an image.
//
// # Logging
//
// frameloop is silent by default. Call SetLogger to route its log records,
// and those of the shader package and the HAL backends, to a slog.Logger.
package frameloop
