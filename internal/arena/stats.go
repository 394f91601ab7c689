package arena

import (
	"fmt"
	"math"
)

// z-score of the 97.5th percentile of the standard normal distribution.
const normPPF0975 = 1.959963984540054

// eloScale converts a normalized score into normalized Elo.
var eloScale = 800 / math.Ln10

// Trinomial counts game outcomes from one engine's point of view.
type Trinomial struct {
	Wins, Draws, Losses int
}

func (t Trinomial) Games() int {
	return t.Wins + t.Draws + t.Losses
}

func (t *Trinomial) Add(score float64) {
	switch score {
	case 1:
		t.Wins++
	case 0:
		t.Losses++
	default:
		t.Draws++
	}
}

func (t Trinomial) moments() (mean, variance float64, n int) {
	return moments([]int{t.Losses, t.Draws, t.Wins}, []float64{0, 0.5, 1})
}

func (t Trinomial) LogisticElo() Interval { return logisticInterval(t.moments()) }

func (t Trinomial) NormalizedElo() Interval { return normalizedInterval(t.moments()) }

// Pentanomial counts game pairs: the same opening played twice with colors
// swapped, scored from one engine's point of view.
type Pentanomial struct {
	LL, DL, DD, WL, WD, WW int
}

func (p Pentanomial) Pairs() int {
	return p.LL + p.DL + p.DD + p.WL + p.WD + p.WW
}

func (p Pentanomial) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d, %d, %d]", p.LL, p.DL, p.DD, p.WL, p.WD, p.WW)
}

// Add records a pair given the engine's score in each game.
func (p *Pentanomial) Add(first, second float64) {
	if first < second {
		first, second = second, first
	}
	switch {
	case first == 0:
		p.LL++
	case first == 0.5 && second == 0:
		p.DL++
	case first == 0.5:
		p.DD++
	case second == 0:
		p.WL++
	case second == 0.5:
		p.WD++
	default:
		p.WW++
	}
}

func (p Pentanomial) moments() (mean, variance float64, n int) {
	return moments([]int{p.LL, p.DL, p.DD + p.WL, p.WD, p.WW}, []float64{0, 0.25, 0.5, 0.75, 1})
}

func (p Pentanomial) LogisticElo() Interval { return logisticInterval(p.moments()) }

func (p Pentanomial) NormalizedElo() Interval { return normalizedInterval(p.moments()) }

// moments returns the mean score and its per-sample variance. Empty buckets
// get a small regularisation so that all-win or all-loss samples stay finite.
func moments(counts []int, scores []float64) (mean, variance float64, n int) {
	var zeros = 0
	for _, c := range counts {
		n += c
		if c == 0 {
			zeros++
		}
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	var reg = 0.0
	if zeros != 0 {
		reg = 1e-3 / float64(zeros)
	}
	var total = float64(n) + reg*float64(len(counts))
	var probs = make([]float64, len(counts))
	for i, c := range counts {
		probs[i] = (float64(c) + reg) / total
		mean += probs[i] * scores[i]
	}
	for i := range probs {
		variance += probs[i] * (scores[i] - mean) * (scores[i] - mean)
	}
	return mean, variance, n
}

// Interval is an Elo estimate with its 95% confidence bounds.
type Interval struct {
	Lower, Mean, Upper float64
}

func (iv Interval) String() string {
	return fmt.Sprintf("%v (%v, %v)", eloString(iv.Mean), eloString(iv.Lower), eloString(iv.Upper))
}

func logisticInterval(mean, variance float64, n int) Interval {
	if n == 0 {
		return Interval{math.NaN(), math.NaN(), math.NaN()}
	}
	var margin = normPPF0975 * math.Sqrt(variance/float64(n))
	return Interval{
		Lower: logisticElo(mean - margin),
		Mean:  logisticElo(mean),
		Upper: logisticElo(mean + margin),
	}
}

func normalizedInterval(mean, variance float64, n int) Interval {
	if n == 0 || variance == 0 {
		return Interval{math.NaN(), math.NaN(), math.NaN()}
	}
	var margin = normPPF0975 * math.Sqrt(variance/float64(n))
	var scale = eloScale / math.Sqrt(2*variance)
	return Interval{
		Lower: (mean - margin - 0.5) * scale,
		Mean:  (mean - 0.5) * scale,
		Upper: (mean + margin - 0.5) * scale,
	}
}

func logisticElo(score float64) float64 {
	score = math.Min(math.Max(score, 1e-6), 1-1e-6)
	return -400 * math.Log10(1/score-1)
}

func eloString(elo float64) string {
	switch {
	case math.IsNaN(elo):
		return "N/A"
	case math.IsInf(elo, 1):
		return "+INF"
	case math.IsInf(elo, -1):
		return "-INF"
	}
	return fmt.Sprintf("%+.2f", elo)
}

type GameStatistics struct {
	WinningFraction float64
	EloDifference   float64
	LOS             float64
}

//https://chessprogramming.wikispaces.com/Match%20Statistics
func computeStat(wins, losses, draws int) GameStatistics {
	var games = wins + losses + draws
	var winningFraction = (float64(wins) + 0.5*float64(draws)) / float64(games)
	var eloDifference = -math.Log(1/winningFraction-1) * 400 / math.Ln10
	var los = 0.5 + 0.5*math.Erf(float64(wins-losses)/math.Sqrt(2*float64(wins+losses)))
	return GameStatistics{
		WinningFraction: winningFraction,
		EloDifference:   eloDifference,
		LOS:             los,
	}
}
