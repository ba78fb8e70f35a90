package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	arg "github.com/alexflint/go-arg"

	"github.com/braindrive/braindrive/braindrive-go/driver"
	"github.com/braindrive/braindrive/braindrive-go/experiment"
	"github.com/braindrive/braindrive/braindrive-go/features"
	"github.com/braindrive/braindrive/braindrive-go/modelstore"
	"github.com/braindrive/braindrive/braindrive-go/stream"
)

func noErr(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	args := struct {
		Config  string `arg:"positional,required" help:"experiment YAML"`
		Data    string `arg:"positional,required" help:"prepared epochs JSON to replay"`
		Subject int    `arg:"required" help:"subject whose model and signal to use"`

		Buffer     float64 `help:"ring buffer length in seconds"`
		GameAddr   string  `arg:"--game-addr" help:"UDP address of the driving game"`
		Player     int     `help:"player slot in the game"`
		MQTTBroker string  `arg:"--mqtt-broker" help:"broker URL for prediction telemetry"`
		MQTTTopic  string  `arg:"--mqtt-topic"`
	}{
		Buffer:    10,
		MQTTTopic: "braindrive/predictions",
	}
	arg.MustParse(&args)

	cfg, err := experiment.Load(args.Config)
	noErr(err)

	store, err := modelstore.Open(cfg.ModelStore)
	noErr(err)
	defer store.Close()

	model, fit, err := store.Model(strconv.Itoa(args.Subject))
	noErr(err)

	// rebuild the pipeline from what the models were trained with,
	// then freeze it at the training-time statistics
	featureCfg := cfg.Feature
	if meta, err := store.Meta(); err == nil {
		featureCfg = meta.Feature
	}
	pipeline, err := features.NewPipeline(featureCfg)
	noErr(err)
	if fit != nil {
		noErr(pipeline.RestoreFit(fit))
	}

	dataset, err := experiment.LoadDataset(args.Data)
	noErr(err)
	epochs := dataset.SubjectEpochs(args.Subject)
	if len(epochs) == 0 {
		log.Fatalf("no epochs for subject %d in %s", args.Subject, args.Data)
	}

	replay, err := stream.NewReplay(epochs, args.Buffer)
	noErr(err)

	var emitters []stream.Emitter
	if args.GameAddr != "" {
		commands, err := driver.ParseCommandMap(cfg.Commands)
		noErr(err)
		game, err := driver.NewGameControl(args.GameAddr, args.Player, commands)
		noErr(err)
		defer game.Close()
		emitters = append(emitters, game)
	}
	if args.MQTTBroker != "" {
		mqtt, err := driver.NewMQTTEmitter(args.MQTTBroker, "braindrive-online", args.MQTTTopic)
		noErr(err)
		defer mqtt.Close()
		emitters = append(emitters, mqtt)
	}

	streamer, err := stream.NewStreamer(replay, pipeline, model, cfg.Windowing.Length, emitters...)
	noErr(err)
	log.Printf("session %s: driving subject %d at %.0f Hz", streamer.Session(), args.Subject, replay.Fs())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		log.Print("shutting down")
		cancel()
	}()

	go func() {
		if err := replay.Run(ctx); err != nil {
			log.Printf("replay stopped: %v", err)
		}
	}()

	noErr(streamer.Run(ctx))
}
