package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parlorvoice/parlor/pkg/audio/framer"
	"github.com/parlorvoice/parlor/pkg/audio/pcm"
	"github.com/parlorvoice/parlor/pkg/cli"
	"github.com/parlorvoice/parlor/pkg/client"
	"github.com/parlorvoice/parlor/pkg/turn"
)

var (
	runInputFile  string
	runOutputFile string
	runNativeRate int
	runSinkRate   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Hold a live session over the realtime transport",
	Long: `Run connects to the server and streams audio both ways until
interrupted.

Microphone input is raw mono PCM16 little-endian, read from --input or
stdin. Agent audio is written to --output as raw PCM16, resampled to
--sink-rate when it differs from the wire rate.

Example:
  arecord -f S16_LE -r 48000 -c 1 | parlor run --output agent.pcm`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(sigCtx)

		var sink io.Writer
		if runOutputFile != "" {
			f, err := os.Create(runOutputFile)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			sink = f
		}

		c, _, cleanup, err := connectLive(cmd, func(cfg *client.Config) {
			cfg.Sink = sink
			cfg.SinkRate = runSinkRate
		})
		if err != nil {
			return err
		}
		defer cleanup()

		styles := cli.NewStyles(cli.DefaultTheme)
		c.OnStateChange(func(st client.State) {
			fmt.Fprintln(os.Stderr, styles.Dim.Render("connection: "+st.String()))
		})
		c.OnTurnChange(func(st turn.State) {
			if st.Interrupted {
				fmt.Fprintln(os.Stderr, styles.Live.Render("barge-in"))
				return
			}
			fmt.Fprintln(os.Stderr, styles.Dim.Render("turn: "+st.Speaker.String()))
		})

		var input io.Reader = os.Stdin
		if runInputFile != "" {
			f, err := os.Open(runInputFile)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			input = f
		}

		fmt.Fprintln(os.Stderr, styles.Title.Render("live session started, ctrl-c to stop"))
		if err := streamCapture(sigCtx.Done(), c, input, runNativeRate); err != nil {
			return err
		}

		// Let the agent finish its reply before tearing the transport down.
		select {
		case <-sigCtx.Done():
		case <-time.After(2 * time.Second):
		}

		st := c.Stats()
		fmt.Fprintln(os.Stderr, styles.Dim.Render(fmt.Sprintf(
			"session: sent %s in %d frames, received %s in %d frames, %d reconnects",
			cli.FormatBytes(int64(st.BytesSent)), st.AudioFramesSent,
			cli.FormatBytes(int64(st.BytesReceived)), st.AudioFramesReceived,
			st.Reconnects)))
		return nil
	},
}

// streamCapture pumps PCM16 from r through the capture pipeline and onto
// the wire until EOF or cancellation.
func streamCapture(done <-chan struct{}, c *client.Client, r io.Reader, nativeRate int) error {
	cfg := framer.DefaultConfig
	if nativeRate > 0 {
		cfg.NativeRate = nativeRate
	}
	fr := framer.New(cfg)
	defer fr.Close()

	go func() {
		for chunk := range fr.Chunks() {
			if err := c.SendAudio(chunk); err != nil {
				return
			}
		}
	}()

	if err := c.Arbiter().BeginCapture(); err != nil {
		return fmt.Errorf("claim turn: %w", err)
	}
	fr.Start()
	defer func() {
		fr.Stop()
		c.Arbiter().EndCapture()
	}()

	// 20ms of native-rate PCM16 per read.
	buf := make([]byte, cfg.NativeRate/50*2)
	for {
		select {
		case <-done:
			return nil
		default:
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			samples := pcm.SamplesLE(buf[:n&^1])
			floats := make([]float32, len(samples))
			for i, s := range samples {
				floats[i] = pcm.DecodeSample(s)
			}
			fr.Process(floats)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
	}
}

func init() {
	runCmd.Flags().StringVar(&runInputFile, "input", "", "raw PCM16 input file (default: stdin)")
	runCmd.Flags().StringVar(&runOutputFile, "output", "", "write agent audio to this file as raw PCM16")
	runCmd.Flags().IntVar(&runNativeRate, "rate", 48000, "input sample rate")
	runCmd.Flags().IntVar(&runSinkRate, "sink-rate", 16000, "output sample rate")
}
