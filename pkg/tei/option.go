package tei

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type OptionType int8

const (
	Check OptionType = iota
	Spin
	Combo
	Button
	String
)

var optionTypeNames = [...]string{"check", "spin", "combo", "button", "string"}

func (t OptionType) String() string {
	return optionTypeNames[t]
}

const emptyDefault = "<empty>"

// Declaration is an option as announced by an engine during the handshake.
type Declaration struct {
	Name    string
	Type    OptionType
	Default string
	Min     int64
	Max     int64
	Vars    []string
}

func (d Declaration) String() string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "option name %v type %v", d.Name, d.Type)
	switch d.Type {
	case Check:
		fmt.Fprintf(sb, " default %v", d.Default)
	case Spin:
		fmt.Fprintf(sb, " default %v min %v max %v", d.Default, d.Min, d.Max)
	case Combo:
		fmt.Fprintf(sb, " default %v", d.Default)
		for _, v := range d.Vars {
			fmt.Fprintf(sb, " var %v", v)
		}
	case String:
		var def = d.Default
		if def == "" {
			def = emptyDefault
		}
		fmt.Fprintf(sb, " default %v", def)
	}
	return sb.String()
}

// Validate checks that value may be sent with setoption.
func (d Declaration) Validate(value string) error {
	switch d.Type {
	case Check:
		if value != "true" && value != "false" {
			return fmt.Errorf("option %v: %q is not true or false", d.Name, value)
		}
	case Spin:
		var v, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("option %v: %w", d.Name, err)
		}
		if v < d.Min || v > d.Max {
			return fmt.Errorf("option %v: %v out of range [%v, %v]", d.Name, v, d.Min, d.Max)
		}
	case Combo:
		for _, v := range d.Vars {
			if strings.EqualFold(v, value) {
				return nil
			}
		}
		return fmt.Errorf("option %v: %q is not one of %v", d.Name, value, d.Vars)
	}
	return nil
}

// ParseOption decodes an "option name ... type ..." line.
func ParseOption(line string) (Declaration, error) {
	var fields = strings.Fields(line)
	if len(fields) == 0 || fields[0] != "option" {
		return Declaration{}, protocolError(line, "not an option")
	}
	var parts = map[string][]string{}
	var vars [][]string
	var key string
	for _, word := range fields[1:] {
		switch word {
		case "name", "type", "default", "min", "max":
			key = word
			continue
		case "var":
			key = word
			vars = append(vars, nil)
			continue
		}
		switch key {
		case "":
			return Declaration{}, protocolError(line, "expected name, got %q", word)
		case "var":
			vars[len(vars)-1] = append(vars[len(vars)-1], word)
		default:
			parts[key] = append(parts[key], word)
		}
	}

	var d = Declaration{
		Name:    strings.Join(parts["name"], " "),
		Default: strings.Join(parts["default"], " "),
	}
	if d.Name == "" {
		return Declaration{}, protocolError(line, "option without name")
	}
	if len(parts["type"]) != 1 {
		return Declaration{}, protocolError(line, "option %v needs exactly one type", d.Name)
	}
	var err error
	switch parts["type"][0] {
	case "check":
		d.Type = Check
		if _, err = strconv.ParseBool(d.Default); err != nil {
			return Declaration{}, protocolError(line, "bad check default %q", d.Default)
		}
	case "spin":
		d.Type = Spin
		var def, min, max int64
		def, err = strconv.ParseInt(d.Default, 10, 64)
		if err == nil {
			min, err = strconv.ParseInt(strings.Join(parts["min"], " "), 10, 64)
		}
		if err == nil {
			max, err = strconv.ParseInt(strings.Join(parts["max"], " "), 10, 64)
		}
		if err != nil || def < min || def > max {
			return Declaration{}, protocolError(line, "bad spin bounds")
		}
		d.Min, d.Max = min, max
	case "combo":
		d.Type = Combo
		for _, v := range vars {
			d.Vars = append(d.Vars, strings.Join(v, " "))
		}
	case "button":
		d.Type = Button
	case "string":
		d.Type = String
		var def = parts["default"]
		if len(def) > 1 && contains(def, emptyDefault) {
			return Declaration{}, protocolError(line, "default is both empty and non-empty")
		}
		if d.Default == emptyDefault {
			d.Default = ""
		}
	default:
		return Declaration{}, protocolError(line, "unknown option type %q", parts["type"][0])
	}
	return d, nil
}

func contains(slice []string, value string) bool {
	for _, v := range slice {
		if v == value {
			return true
		}
	}
	return false
}

// Option is an engine-side setting exposed through setoption.
type Option interface {
	Declaration() Declaration
	Set(s string) error
}

type BoolOption struct {
	Name  string
	Value *bool
}

func (opt *BoolOption) Declaration() Declaration {
	return Declaration{Name: opt.Name, Type: Check, Default: strconv.FormatBool(*opt.Value)}
}

func (opt *BoolOption) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*opt.Value = v
	return nil
}

type IntOption struct {
	Name  string
	Min   int
	Max   int
	Value *int
}

func (opt *IntOption) Declaration() Declaration {
	return Declaration{
		Name:    opt.Name,
		Type:    Spin,
		Default: strconv.Itoa(*opt.Value),
		Min:     int64(opt.Min),
		Max:     int64(opt.Max),
	}
}

func (opt *IntOption) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < opt.Min || v > opt.Max {
		return errors.New("argument out of range")
	}
	*opt.Value = v
	return nil
}

type StringOption struct {
	Name  string
	Value *string
}

func (opt *StringOption) Declaration() Declaration {
	return Declaration{Name: opt.Name, Type: String, Default: *opt.Value}
}

func (opt *StringOption) Set(s string) error {
	*opt.Value = s
	return nil
}
