// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// glazestats defers a synthetic scene through the frame builder and
// reports how it batched, plus a simulated jank summary. Useful for
// eyeballing the effect of batching changes without a GPU attached.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/glazegfx/glaze"
	"github.com/glazegfx/glaze/frame"
	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/jank"
	"github.com/glazegfx/glaze/mem"
	"github.com/glazegfx/glaze/offscreen"
	"github.com/glazegfx/glaze/record"
)

func main() {
	app := cli.NewApp()
	app.Name = "glazestats"
	app.Usage = "defer a synthetic scene and print batching statistics"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable debug logging",
		},
		cli.IntFlag{
			Name:  "width",
			Value: 1080,
			Usage: "viewport width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 1920,
			Usage: "viewport height",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "batches",
			Usage:  "defer the synthetic scene and print the replayed batches",
			Action: runBatches,
		},
		{
			Name:  "jank",
			Usage: "defer the scene repeatedly and print frame timing percentiles",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "frames",
					Value: 120,
					Usage: "number of frames to simulate",
				},
			},
			Action: runJank,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		glaze.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}

// buildScene records a plausible app frame: a background fill, a scrolling
// column of icon rows (mergeable bitmaps and text), an elevated card with
// a shadow, and a toolbar composited through a save layer.
func buildScene(width, height float32) *record.RenderNode {
	icon := record.NewBitmap(64, 64, record.BitmapRGBA8888)

	list := record.NewNode("list", 0, 200, width, height)
	{
		canvas := record.NewCanvas(width, height-200)
		for row := 0; row < 12; row++ {
			y := float32(row) * 140
			canvas.DrawBitmap(icon, 16, y+38, nil)
			glyphs := make([]uint16, 24)
			canvas.DrawText(glyphs, nil,
				gmath.RectLTRB(112, y+50, width-32, y+90),
				&record.Paint{Color: 0xFF000000, TextSize: 32})
			canvas.DrawRect(0, y+139, width, y+140,
				&record.Paint{Color: 0x22000000})
		}
		list.DisplayList = canvas.Finish()
	}

	card := record.NewNode("card", 60, 400, width-60, 800)
	card.Properties.Elevation = 8
	card.Properties.Outline.SetRoundRect(
		gmath.RectWH(0, 0, width-120, 400), 24, 1)
	card.Properties.Outline.ShouldClip = true
	{
		canvas := record.NewCanvas(width-120, 400)
		canvas.DrawColor(0xFFFFFFFF, record.BlendSrcOver)
		canvas.DrawBitmap(icon, 24, 24, nil)
		canvas.DrawBitmap(icon, 24, 120, nil)
		card.DisplayList = canvas.Finish()
	}

	toolbar := record.NewNode("toolbar", 0, 0, width, 200)
	toolbar.Properties.Alpha = 0.9
	{
		canvas := record.NewCanvas(width, 200)
		canvas.DrawColor(0xFF3F51B5, record.BlendSrcOver)
		glyphs := make([]uint16, 12)
		canvas.DrawText(glyphs, nil, gmath.RectLTRB(72, 60, 500, 140),
			&record.Paint{Color: 0xFFFFFFFF, TextSize: 48})
		toolbar.DisplayList = canvas.Finish()
	}

	root := record.NewNode("root", 0, 0, width, height)
	{
		canvas := record.NewCanvas(width, height)
		canvas.DrawColor(0xFFEEEEEE, record.BlendSrcOver)
		canvas.InsertReorderBarrier(true)
		canvas.DrawRenderNode(list)
		canvas.DrawRenderNode(card)
		canvas.InsertReorderBarrier(false)
		canvas.DrawRenderNode(toolbar)
		root.DisplayList = canvas.Finish()
	}
	return root
}

func deferScene(width, height int) (*frame.FrameBuilder, *mem.Arena) {
	arena := mem.NewArena()
	fb := frame.NewFrameBuilder(arena,
		gmath.RectWH(0, 0, float32(width), float32(height)),
		uint32(width), uint32(height),
		frame.LightGeometry{
			Center: gmath.Vec3{X: float32(width) / 2, Y: 0, Z: 800},
			Radius: 800,
		},
		frame.DeviceInfo{MaxTextureSize: 8192},
		frame.Options{})
	fb.DeferRenderNode(buildScene(float32(width), float32(height)))
	fb.FinishDefer()
	return fb, arena
}

// statsRenderer tallies replayed work instead of drawing it.
type statsRenderer struct {
	rows [][]string

	target    string
	opCounts  map[record.OpKind]int
	mergedOps int
}

func (r *statsRenderer) flushTarget() {
	if r.target == "" {
		return
	}
	for kind, n := range r.opCounts {
		r.rows = append(r.rows, []string{
			r.target, kind.String(), fmt.Sprintf("%d", n), "",
		})
	}
	if r.mergedOps > 0 {
		r.rows = append(r.rows, []string{
			r.target, "", "", fmt.Sprintf("%d", r.mergedOps),
		})
	}
	r.target = ""
}

func (r *statsRenderer) startTarget(name string) {
	r.flushTarget()
	r.target = name
	r.opCounts = make(map[record.OpKind]int)
	r.mergedOps = 0
}

func (r *statsRenderer) StartFrame(width, height uint32, repaint gmath.Rect) {
	r.startTarget(fmt.Sprintf("frame %dx%d", width, height))
}

func (r *statsRenderer) EndFrame(repaint gmath.Rect) { r.flushTarget() }

func (r *statsRenderer) StartTemporaryLayer(width, height uint32) *offscreen.Buffer {
	r.startTarget(fmt.Sprintf("layer %dx%d", width, height))
	return nil
}

func (r *statsRenderer) StartRepaintLayer(buf *offscreen.Buffer, repaint gmath.Rect) {
	r.startTarget(fmt.Sprintf("hw layer %dx%d", buf.ViewportWidth, buf.ViewportHeight))
}

func (r *statsRenderer) EndLayer() { r.flushTarget() }

func (r *statsRenderer) RecycleTemporaryLayer(buf *offscreen.Buffer) {}

func (r *statsRenderer) OnOp(op *record.Op, state *frame.BakedOpState) {
	r.opCounts[op.Kind]++
}

func (r *statsRenderer) OnMergedOps(id frame.BatchID, list frame.MergedOpList) {
	r.mergedOps += len(list.States)
}

func runBatches(ctx *cli.Context) error {
	setupLogging(ctx)
	width := ctx.GlobalInt("width")
	height := ctx.GlobalInt("height")

	fb, _ := deferScene(width, height)

	var r statsRenderer
	fb.Replay(&r)
	r.flushTarget()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Target", "Op kind", "Ops", "Merged ops"})
	for _, row := range r.rows {
		table.Append(row)
	}
	totalBatches := 0
	totalOps := 0
	for _, lb := range fb.LayerBuilders() {
		totalBatches += lb.BatchCount()
		totalOps += lb.OpCount()
	}
	table.SetFooter([]string{"TOTAL",
		fmt.Sprintf("%d batches", totalBatches),
		fmt.Sprintf("%d ops", totalOps), ""})
	table.Render()
	return nil
}

func runJank(ctx *cli.Context) error {
	setupLogging(ctx)
	width := ctx.GlobalInt("width")
	height := ctx.GlobalInt("height")
	frames := ctx.Int("frames")

	tracker := jank.NewTracker(time.Second / 60)
	for i := 0; i < frames; i++ {
		var fi jank.FrameInfo
		base := time.Now().UnixNano()
		fi.Set(jank.IntendedVsync, base)
		fi.Set(jank.Vsync, base)
		fi.Set(jank.SyncStart, time.Now().UnixNano())

		fb, _ := deferScene(width, height)
		fi.Set(jank.IssueDrawCommandsStart, time.Now().UnixNano())

		var r statsRenderer
		fb.Replay(&r)
		fi.Set(jank.SwapBuffers, time.Now().UnixNano())
		fi.Set(jank.FrameCompleted, time.Now().UnixNano())
		tracker.FinishFrame(&fi)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Frames", fmt.Sprintf("%d", tracker.TotalFrames())})
	table.Append([]string{"Janky", fmt.Sprintf("%d", tracker.JankyFrames())})
	for _, p := range []int{50, 90, 95, 99} {
		table.Append([]string{
			fmt.Sprintf("p%d", p),
			tracker.Percentile(p).String(),
		})
	}
	for ty := jank.Type(0); ty < jank.NumTypes; ty++ {
		table.Append([]string{ty.String(), fmt.Sprintf("%d", tracker.Count(ty))})
	}
	table.Render()
	return nil
}
