package main

import (
	"fmt"
	"strconv"
	"strings"
)

// runFlags holds the parsed flags for `curlee run` (spec §6 "Capability
// flags: `--cap NAME` and `--cap=NAME` may repeat; missing value is a usage
// error; empty value is a usage error. `--fuel` accepts non-negative
// integers.").
type runFlags struct {
	caps       []string
	fuel       *int
	bundlePath string
	file       string
}

func parseRunFlags(args []string) (runFlags, error) {
	var f runFlags
	var file string

	i := 0
	for i < len(args) {
		arg := args[i]
		switch {
		case arg == "--cap":
			v, n, err := takeValue(args, i, "--cap")
			if err != nil {
				return f, err
			}
			if v == "" {
				return f, fmt.Errorf("--cap requires a non-empty value")
			}
			f.caps = append(f.caps, v)
			i += n

		case strings.HasPrefix(arg, "--cap="):
			v := strings.TrimPrefix(arg, "--cap=")
			if v == "" {
				return f, fmt.Errorf("--cap requires a non-empty value")
			}
			f.caps = append(f.caps, v)
			i++

		case arg == "--fuel":
			v, n, err := takeValue(args, i, "--fuel")
			if err != nil {
				return f, err
			}
			fuel, err := parseFuel(v)
			if err != nil {
				return f, err
			}
			f.fuel = &fuel
			i += n

		case strings.HasPrefix(arg, "--fuel="):
			fuel, err := parseFuel(strings.TrimPrefix(arg, "--fuel="))
			if err != nil {
				return f, err
			}
			f.fuel = &fuel
			i++

		case arg == "--bundle":
			v, n, err := takeValue(args, i, "--bundle")
			if err != nil {
				return f, err
			}
			f.bundlePath = v
			i += n

		case strings.HasPrefix(arg, "--bundle="):
			f.bundlePath = strings.TrimPrefix(arg, "--bundle=")
			i++

		case strings.HasPrefix(arg, "-"):
			return f, fmt.Errorf("unrecognized flag '%s'", arg)

		default:
			if file != "" {
				return f, fmt.Errorf("unexpected extra argument '%s'", arg)
			}
			file = arg
			i++
		}
	}

	if file == "" {
		return f, fmt.Errorf("missing FILE argument")
	}
	f.file = file
	return f, nil
}

// takeValue consumes the flag's value from the next argument, returning how
// many argv slots were consumed (2: the flag and its value).
func takeValue(args []string, i int, name string) (string, int, error) {
	if i+1 >= len(args) {
		return "", 0, fmt.Errorf("%s requires a value", name)
	}
	return args[i+1], 2, nil
}

func parseFuel(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("--fuel requires a non-negative integer, got '%s'", s)
	}
	return n, nil
}
