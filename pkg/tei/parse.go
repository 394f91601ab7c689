package tei

import (
	"strconv"
	"strings"
	"time"

	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

// ParseEngineLine decodes a line written by an engine. Lines without protocol
// meaning decode to Other; malformed control lines return a *ProtocolError.
func ParseEngineLine(line string) (EngineCommand, error) {
	var fields = strings.Fields(line)
	if len(fields) == 0 {
		return Other{Line: line}, nil
	}
	switch fields[0] {
	case "teiok":
		return TeiOK{}, nil
	case "readyok":
		return ReadyOK{}, nil
	case "id":
		if len(fields) < 3 {
			return nil, protocolError(line, "id without value")
		}
		return ID{Field: fields[1], Value: strings.Join(fields[2:], " ")}, nil
	case "bestmove":
		return parseBestMove(line, fields[1:])
	case "info":
		return parseInfo(fields[1:]), nil
	case "option":
		var d, err = ParseOption(line)
		if err != nil {
			return nil, err
		}
		return OptionDecl{Option: d}, nil
	}
	return Other{Line: line}, nil
}

func parseBestMove(line string, args []string) (EngineCommand, error) {
	if len(args) == 0 {
		return nil, protocolError(line, "bestmove without move")
	}
	if args[0] == "resign" {
		return BestMove{Resign: true}, nil
	}
	var m, err = tak.ParseMove(args[0])
	if err != nil {
		return nil, protocolError(line, "%v", err)
	}
	var result = BestMove{Move: m}
	if len(args) >= 3 && args[1] == "ponder" {
		if ponder, err := tak.ParseMove(args[2]); err == nil {
			result.Ponder, result.HasPonder = ponder, true
		}
	}
	return result, nil
}

// ParseGuiLine decodes a line written by the runner.
func ParseGuiLine(line string) (GuiCommand, error) {
	var fields = strings.Fields(line)
	if len(fields) == 0 {
		return nil, protocolError(line, "empty command")
	}
	var args = fields[1:]
	switch fields[0] {
	case "tei":
		return Tei{}, nil
	case "isready":
		return IsReady{}, nil
	case "stop":
		return Stop{}, nil
	case "quit":
		return Quit{}, nil
	case "teinewgame":
		if len(args) != 1 {
			return nil, protocolError(line, "teinewgame needs a size")
		}
		var size, err = strconv.Atoi(args[0])
		if err != nil {
			return nil, protocolError(line, "bad size")
		}
		return TeiNewGame{Size: size}, nil
	case "setoption":
		return parseSetOption(line, args)
	case "position":
		return parsePosition(line, args)
	case "go":
		return parseGo(args), nil
	}
	return nil, protocolError(line, "unknown command")
}

func parseSetOption(line string, args []string) (GuiCommand, error) {
	var valueIndex = findIndexString(args, "value")
	if len(args) < 2 || args[0] != "name" || valueIndex == 1 {
		return nil, protocolError(line, "invalid setoption arguments")
	}
	if valueIndex == -1 {
		return SetOption{Name: strings.Join(args[1:], " ")}, nil
	}
	return SetOption{
		Name:  strings.Join(args[1:valueIndex], " "),
		Value: strings.Join(args[valueIndex+1:], " "),
	}, nil
}

func parsePosition(line string, args []string) (GuiCommand, error) {
	if len(args) == 0 {
		return nil, protocolError(line, "position without board")
	}
	var movesIndex = findIndexString(args, "moves")
	var end = len(args)
	if movesIndex >= 0 {
		end = movesIndex
	}
	var result Position
	switch args[0] {
	case "startpos":
		if end != 1 {
			return nil, protocolError(line, "unexpected tokens after startpos")
		}
	case "tps":
		if end-1 != 3 {
			return nil, protocolError(line, "tps needs 3 fields")
		}
		result.TPS = strings.Join(args[1:end], " ")
	default:
		return nil, protocolError(line, "unknown position command")
	}
	if movesIndex >= 0 {
		for _, s := range args[movesIndex+1:] {
			var m, err = tak.ParseMove(s)
			if err != nil {
				return nil, protocolError(line, "%v", err)
			}
			result.Moves = append(result.Moves, m)
		}
	}
	return result, nil
}

func parseGo(args []string) Go {
	var result Go
	var millis = func(i int) time.Duration {
		if i+1 >= len(args) {
			return 0
		}
		var v, _ = strconv.ParseInt(args[i+1], 10, 64)
		return time.Duration(v) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "wtime":
			result.WTime = millis(i)
			i++
		case "btime":
			result.BTime = millis(i)
			i++
		case "winc":
			result.WInc = millis(i)
			i++
		case "binc":
			result.BInc = millis(i)
			i++
		case "movetime":
			result.MoveTime = millis(i)
			i++
		}
	}
	return result
}

func findIndexString(slice []string, value string) int {
	for p, v := range slice {
		if v == value {
			return p
		}
	}
	return -1
}
