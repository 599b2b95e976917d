package main

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/urfave/cli.v2"

	"famigo/display"
	"famigo/monitor"
	"famigo/mos6502"
)

// loadCPU builds a CPU over flat RAM with the raw program from path
// loaded at the standard base.
func loadCPU(path string) (*mos6502.CPU, error) {
	program, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := mos6502.New(mos6502.NewRAM())
	c.Load(program)
	return c, nil
}

func programArg(ctx *cli.Context) (string, error) {
	path := ctx.Args().First()
	if path == "" {
		return "", cli.Exit("missing program file", 1)
	}
	return path, nil
}

func main() {
	app := &cli.App{
		Name:    "famigo",
		Usage:   "Run raw 6502 machine code programs",
		Version: "v0.1.0",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "execute a program until it BRKs, then print the registers",
				ArgsUsage: "<program.bin>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "trace",
						Aliases: []string{"t"},
						Usage:   "print every instruction as it executes",
					},
				},
				Action: func(ctx *cli.Context) error {
					path, err := programArg(ctx)
					if err != nil {
						return err
					}
					c, err := loadCPU(path)
					if err != nil {
						return err
					}

					if ctx.Bool("trace") {
						err = c.RunWithCallback(func(c *mos6502.CPU) {
							fmt.Println(c.Inst())
						})
					} else {
						err = c.Run()
					}
					if err != nil {
						return err
					}

					fmt.Println(c)
					return nil
				},
			},
			{
				Name:      "monitor",
				Usage:     "step through a program interactively",
				ArgsUsage: "<program.bin>",
				Action: func(ctx *cli.Context) error {
					path, err := programArg(ctx)
					if err != nil {
						return err
					}
					c, err := loadCPU(path)
					if err != nil {
						return err
					}
					return monitor.Monitor(c)
				},
			},
			{
				Name:      "play",
				Usage:     "run a 32x32 framebuffer program in a window",
				ArgsUsage: "<program.bin>",
				Action: func(ctx *cli.Context) error {
					path, err := programArg(ctx)
					if err != nil {
						return err
					}
					c, err := loadCPU(path)
					if err != nil {
						return err
					}
					return display.Play(c)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
