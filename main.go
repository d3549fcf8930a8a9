package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gregLibert/microsd/pkg/register"
	"github.com/gregLibert/microsd/pkg/report"
	"github.com/gregLibert/microsd/pkg/sdspi"
	"github.com/gregLibert/microsd/pkg/spibus"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"
)

type options struct {
	port      string
	idlePort  string
	clock     string
	verbose   bool
	strictCRC bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "microsd",
		Short:         "Bring up an SD/MMC card over SPI and dump its registers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(opts)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}

	root.Flags().StringVar(&opts.port, "port", "SPI0.0", "SPI port wired to the card chip select")
	root.Flags().StringVar(&opts.idlePort, "idle-port", "SPI0.1", "SPI port used to clock with the card deselected")
	root.Flags().StringVar(&opts.clock, "clock", "100kHz", "initialization clock (100kHz to 400kHz)")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every command and bus record")
	root.Flags().BoolVar(&opts.strictCRC, "strict-crc", false, "reject data blocks with a bad CRC16")

	return root
}

func run(opts options) error {
	// --- 1. Logging Setup ---
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var clock physic.Frequency
	if err := clock.Set(opts.clock); err != nil {
		return fmt.Errorf("invalid --clock %q: %w", opts.clock, err)
	}

	// --- 2. Hardware Setup ---
	bus, err := spibus.Open(opts.port, opts.idlePort, spibus.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Warn("failed to release SPI ports", "error", err)
		}
	}()

	cardOpts := []sdspi.Option{
		sdspi.WithLogger(logger),
		sdspi.WithInitClock(clock),
		sdspi.WithDataCRC(opts.strictCRC),
	}
	if opts.verbose {
		cardOpts = append(cardOpts, sdspi.WithTracer(sdspi.TracerFunc(func(rec sdspi.Record) {
			logger.Debug("bus", "record", rec.String())
		})))
	}
	card := sdspi.NewCard(bus, cardOpts...)

	// --- 3. Execution Flow ---
	if err := step1Init(card); err != nil {
		return err
	}

	csd, err := step2ReadCSD(card)
	if err != nil {
		return err
	}

	cid, err := step3ReadCID(card)
	if err != nil {
		return err
	}

	summary := fmt.Sprintf(">> %s card", card.Type())
	if cid != nil {
		summary += fmt.Sprintf(" %q, serial %08X", cid.ProductName(), cid.SerialNumber())
	}
	if csd != nil {
		summary += fmt.Sprintf(", %d bytes", csd.Capacity)
	}
	fmt.Println("\n" + summary)
	return nil
}

// step1Init runs the bring-up sequence and prints the detected card type.
func step1Init(card *sdspi.Card) error {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 1: CARD INITIALIZATION")
	fmt.Println("=============================================")

	cardType, err := card.Init()
	if err != nil {
		var initErr *sdspi.InitError
		if errors.As(err, &initErr) {
			return fmt.Errorf("initialization stopped at %q (%s): %w", initErr.Step, initErr.Kind, initErr.Err)
		}
		return err
	}

	fmt.Printf(">> Card type: %s (block addressed: %t)\n", cardType, cardType.BlockAddressed())

	if raw := card.OCR(); raw != [4]byte{} {
		ocr, err := register.ParseOCR(raw[:])
		if err != nil {
			return err
		}
		fmt.Println(ocr.Describe())
	}
	return nil
}

// step2ReadCSD reads and decodes the card specific data. A register that cannot be
// decoded is reported and yields a nil CSD.
func step2ReadCSD(card *sdspi.Card) (*register.CSD, error) {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 2: READ CSD (CMD9)")
	fmt.Println("=============================================")

	raw, err := card.GetCSD()
	if err != nil {
		return nil, fmt.Errorf("CSD read failed: %w", err)
	}
	fmt.Printf(">> Raw: %s\n", report.Bytes(raw))

	csd, err := decodeCSD(card.Type(), raw)
	if err != nil {
		fmt.Printf("   (!) Failed to decode CSD: %v\n", err)
		return nil, nil
	}
	fmt.Println(csd.Describe())
	return csd, nil
}

// step3ReadCID reads and decodes the card identification. A register that cannot be
// decoded is reported and yields a nil CID.
func step3ReadCID(card *sdspi.Card) (*register.CID, error) {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 3: READ CID (CMD10)")
	fmt.Println("=============================================")

	raw, err := card.GetCID()
	if err != nil {
		return nil, fmt.Errorf("CID read failed: %w", err)
	}
	fmt.Printf(">> Raw: %s\n", report.Bytes(raw))

	cid, err := decodeCID(card.Type(), raw)
	if err != nil {
		fmt.Printf("   (!) Failed to decode CID: %v\n", err)
		return nil, nil
	}
	fmt.Println(cid.Describe())
	return cid, nil
}

// decodeCSD picks the register layout of the card family.
func decodeCSD(cardType sdspi.CardType, raw []byte) (*register.CSD, error) {
	if cardType == sdspi.CardTypeMMC {
		return register.ParseMMCCSD(raw)
	}
	return register.ParseCSD(raw)
}

// decodeCID picks the register layout of the card family.
func decodeCID(cardType sdspi.CardType, raw []byte) (*register.CID, error) {
	if cardType == sdspi.CardTypeMMC {
		return register.ParseMMCCID(raw)
	}
	return register.ParseCID(raw)
}
