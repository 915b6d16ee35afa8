package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/c64conv"
	"github.com/bodgit/c64conv/bitmap"
	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/loader"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/preview"
	"github.com/bodgit/c64conv/prg"
	"github.com/disintegration/imaging"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const defaultDB = "c64conv.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	if c.Bool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

func parseBackground(s string) (uint8, bool, error) {
	if strings.EqualFold(s, "auto") {
		return 0, true, nil
	}
	if i, err := strconv.ParseUint(s, 10, 8); err == nil && i < c64.Colors {
		return uint8(i), false, nil
	}
	p := palette.C64()
	for i := range p {
		if strings.EqualFold(strings.ReplaceAll(p.Name(uint8(i)), " ", ""), strings.ReplaceAll(s, " ", "")) {
			return uint8(i), false, nil
		}
	}
	return 0, false, fmt.Errorf("invalid background %q", s)
}

func options(c *cli.Context) (c64conv.Options, error) {
	mode, err := c64.ParseMode(c.String("mode"))
	if err != nil {
		return c64conv.Options{}, err
	}

	background, auto, err := parseBackground(c.String("background"))
	if err != nil {
		return c64conv.Options{}, err
	}

	return c64conv.Options{
		Mode:           mode,
		Dither:         c.Bool("dither"),
		Strict:         c.Bool("strict"),
		Background:     background,
		AutoBackground: auto,
		LockBackground: c.Bool("lock-background"),
		OutDir:         c.String("out"),
		WritePRG:       c.Bool("prg"),
		WriteASM:       c.Bool("asm"),
		Workers:        c.Int("workers"),
	}, nil
}

func newConverter(c *cli.Context) (*c64conv.Converter, error) {
	opt, err := options(c)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	var db *c64conv.Catalog
	if c.String("db") != "" {
		if db, err = c64conv.OpenCatalog(c.String("db")); err != nil {
			return nil, err
		}
	}

	m, err := c64conv.New(opt, db, logger)
	if err != nil && db != nil {
		db.Close()
	}
	return m, err
}

func conversionFlags(mode string, writePRG bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Value:   mode,
			Usage:   "display mode: none, hires or multicolor",
		},
		&cli.BoolFlag{
			Name:    "dither",
			Aliases: []string{"d"},
			Usage:   "apply Floyd-Steinberg dithering",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "fail instead of remapping blocks with too many colors",
		},
		&cli.StringFlag{
			Name:    "background",
			Aliases: []string{"b"},
			Value:   "0",
			Usage:   "multicolor background: auto, a color index or name",
		},
		&cli.BoolFlag{
			Name:  "lock-background",
			Usage: "use the background as one of the two colors of every hires cell",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "directory for program and loader files",
		},
		&cli.BoolFlag{
			Name:  "prg",
			Value: writePRG,
			Usage: "write program files",
		},
		&cli.BoolFlag{
			Name:  "asm",
			Usage: "write loader source",
		},
	}
}

func readFiles(paths []string) (*bitmap.Image, error) {
	files := make([]*prg.File, 0, len(paths))
	for _, path := range paths {
		f, err := prg.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return bitmap.FromFiles(files...)
}

func main() {
	app := cli.NewApp()

	app.Name = "c64conv"
	app.Usage = "Commodore 64 bitmap conversion utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"C64CONV_DB"},
			Usage:   "path to conversion catalog",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "convert",
			Usage:     "Convert an image",
			ArgsUsage: "INPUT OUTPUT",
			Flags: append(conversionFlags("none", false), &cli.BoolFlag{
				Name:    "preview",
				Aliases: []string{"p"},
				Usage:   "show the converted image",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, err := newConverter(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				r, err := m.ConvertFile(c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Printf("Converted to %dx%d in %s mode, saved to %s\n", r.Buffer.Width, r.Buffer.Height, r.Mode(), r.Output)
				for _, file := range r.Files {
					fmt.Println(file)
				}

				if c.Bool("preview") {
					if err := preview.Show(r.Display(), filepath.Base(r.Output), 2); err != nil {
						return cli.Exit(err, 1)
					}
				}

				return nil
			},
		},
		{
			Name:      "scan",
			Usage:     "Convert every image under a directory",
			ArgsUsage: "DIRECTORY",
			Flags: append(conversionFlags("hires", true), &cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				EnvVars: []string{"C64CONV_WORKERS"},
				Value:   10,
				Usage:   "number of concurrent conversions",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, err := newConverter(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
				defer stop()

				if err := m.Scan(ctx, c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "view",
			Usage:     "Show converted program files",
			ArgsUsage: "IMAGE.prg COLOR.prg [D800.prg]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "save",
					Aliases: []string{"s"},
					Usage:   "save to an image file instead of showing",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 2,
					Usage: "window magnification",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 || c.NArg() > 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				img, err := readFiles(c.Args().Slice())
				if err != nil {
					return cli.Exit(err, 1)
				}

				b, err := bitmap.Decode(img, palette.C64())
				if err != nil {
					return cli.Exit(err, 1)
				}

				display := b.Image()
				if img.Multicolor {
					display = c64conv.Widen(display)
				}

				if file := c.String("save"); file != "" {
					if err := imaging.Save(display, file); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				}

				if err := preview.Show(display, filepath.Base(c.Args().First()), c.Int("scale")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "loader",
			Usage:     "Print the loader source for a name",
			ArgsUsage: "NAME",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "multicolor",
					Usage: "load a multicolor image",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				names, err := loader.NewNames(c.Args().First(), c.Bool("multicolor"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := loader.Generate(os.Stdout, names); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "palette",
			Usage: "List the palette",
			Action: func(c *cli.Context) error {
				p := palette.C64()
				for i, rgb := range p {
					fmt.Printf("%2d %s %s\n", i, rgb, p.Name(uint8(i)))
				}
				return nil
			},
		},
		{
			Name:  "catalog",
			Usage: "List the conversions in the catalog",
			Action: func(c *cli.Context) error {
				file := c.String("db")
				if file == "" {
					file = filepath.Join(cwd, defaultDB)
				}

				db, err := c64conv.OpenCatalog(file)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				entries, err := db.Entries()
				if err != nil {
					return cli.Exit(err, 1)
				}

				for _, e := range entries {
					fmt.Printf("%s %s %dx%d %s\n", e.Hash, e.Path, e.Width, e.Height, e.Options)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
