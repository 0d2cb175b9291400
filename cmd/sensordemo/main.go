// Command sensordemo runs the sensor kernel against simulated hardware:
// a BME280 and an L3GD20 behind one shared I2C bus, a display task
// draining the reading queue, and stdin driving the channel controls.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"sensoros-go/config"
	"sensoros-go/display"
	"sensoros-go/drivers/bme280"
	"sensoros-go/drivers/l3gd20"
	"sensoros-go/kernel"
	"sensoros-go/sensor"
	"sensoros-go/sim"
	"sensoros-go/x/timex"
)

const (
	prioTemp    = 10
	prioGyro    = 20
	prioControl = 30
	prioDisplay = 100
)

func main() {
	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg := config.Load(cfgPath)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	log := zerolog.New(cw).Level(level).With().Timestamp().Logger()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("sensordemo failed")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	k, err := kernel.New(kernel.Config{
		MaxTasks: cfg.MaxTasks,
		Log:      log.With().Str("comp", "kernel").Logger(),
	})
	if err != nil {
		return err
	}

	// Display first so the sensor tasks have a queue to post into.
	displayID, err := k.Spawn(display.TaskProc, &display.TaskData{
		Log: log.With().Str("task", "display").Logger(),
	}, prioDisplay, cfg.DisplayQueueCap, sensor.MsgSize)
	if err != nil {
		return err
	}

	bus, err := k.NewSemaphore(10, 1)
	if err != nil {
		return err
	}
	tempEvt := k.NewEvent()
	prevEvt := k.NewEvent()
	nextEvt := k.NewEvent()

	// Simulated hardware behind one I2C bus.
	i2c := sim.NewI2C()
	tempModel := sim.NewBME280(2300)
	gyroModel := sim.NewL3GD20(timex.TicksForMs(cfg.GyroPollMS, cfg.TickHz))
	i2c.AddDevice(bme280.Address, tempModel)
	i2c.AddDevice(l3gd20.Address, gyroModel)

	tempDev := bme280.New(i2c)
	gyroDev := l3gd20.New(i2c)

	tempCtl := sensor.NewTemp(tempDev, 0)
	if err := tempCtl.Init(sensor.KindTemp, tempEvt, timex.TicksForMs(cfg.TempPollMS, cfg.TickHz)); err != nil {
		return err
	}
	gyroCtl := sensor.NewGyro(gyroDev)
	gyroPollTicks := timex.TicksForMs(cfg.GyroPollMS, cfg.TickHz)
	if err := gyroCtl.Init(sensor.KindGyro, nil, gyroPollTicks); err != nil {
		return err
	}

	if _, err := k.Spawn(sensor.TaskProc, &sensor.TaskData{
		Display: displayID,
		Bus:     bus,
		Control: tempCtl,
		Event:   tempEvt,
		Log:     log.With().Str("task", "temp").Logger(),
	}, prioTemp, 0, 0); err != nil {
		return err
	}
	if _, err := k.Spawn(sensor.TaskProc, &sensor.TaskData{
		Display:   displayID,
		Bus:       bus,
		Control:   gyroCtl,
		PollTicks: gyroPollTicks,
		Log:       log.With().Str("task", "gyro").Logger(),
	}, prioGyro, 0, 0); err != nil {
		return err
	}
	if _, err := k.Spawn(sensor.ControlTaskProc, &sensor.ControlData{
		Prev:   prevEvt,
		Next:   nextEvt,
		Target: tempCtl,
		Log:    log.With().Str("task", "control").Logger(),
	}, prioControl, 0, 0); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticks := &sim.TickSource{
		Kernel:    k,
		RateHz:    cfg.TickHz,
		Servicers: []sim.Servicer{tempModel, gyroModel, tempCtl},
		Log:       log.With().Str("comp", "tick").Logger(),
	}
	go ticks.Run(ctx)

	input := &sim.Input{
		Prev: prevEvt,
		Next: nextEvt,
		In:   os.Stdin,
		Log:  log.With().Str("comp", "input").Logger(),
	}
	go input.Run(ctx)

	log.Info().
		Uint32("tick_hz", cfg.TickHz).
		Int("queue_cap", cfg.DisplayQueueCap).
		Msg("sensordemo running; p/n switch temperature channel")
	k.Run(ctx)
	return nil
}
