package arena

import (
	"math"
	"testing"
)

type pentaTest struct {
	ll, dl, wl, wd, ww int
}

func (p pentaTest) pentanomial() Pentanomial {
	return Pentanomial{LL: p.ll, DL: p.dl, WL: p.wl, WD: p.wd, WW: p.ww}
}

func near(x, y float64) bool {
	return math.Abs(x-y) <= 0.01
}

func TestPentanomialElo(t *testing.T) {
	var tests = []struct {
		penta      pentaTest
		logistic   Interval
		normalized Interval
	}{
		{pentaTest{485, 1923, 2942, 1937, 594}, Interval{1.21, 5.11, 9.02}, Interval{1.68, 7.10, 12.53}},
		{pentaTest{261, 739, 2683, 737, 253}, Interval{-5.00, -0.67, 3.66}, Interval{-8.13, -1.09, 5.96}},
		{pentaTest{63, 252, 385, 250, 74}, Interval{-7.38, 3.39, 14.17}, Interval{-10.31, 4.74, 19.79}},
		{pentaTest{527, 1007, 1932, 933, 511}, Interval{-9.16, -3.75, 1.66}, Interval{-11.63, -4.76, 2.11}},
		{pentaTest{175, 305, 694, 291, 157}, Interval{-14.57, -5.36, 3.85}, Interval{-18.91, -6.96, 5.00}},
	}
	for i, test := range tests {
		var penta = test.penta.pentanomial()
		var l = penta.LogisticElo()
		if !near(l.Lower, test.logistic.Lower) || !near(l.Mean, test.logistic.Mean) || !near(l.Upper, test.logistic.Upper) {
			t.Error(i, "logistic", l)
		}
		var n = penta.NormalizedElo()
		if !near(n.Lower, test.normalized.Lower) || !near(n.Mean, test.normalized.Mean) || !near(n.Upper, test.normalized.Upper) {
			t.Error(i, "normalized", n)
		}
	}
}

func TestSPRTThresholds(t *testing.T) {
	var tests = []struct {
		penta      pentaTest
		elo0, elo1 float64
		decision   Decision
	}{
		{pentaTest{485, 1923, 2942, 1937, 594}, 0, 5, AcceptH1},
		{pentaTest{261, 739, 2683, 737, 253}, -10, 0, AcceptH1},
		{pentaTest{63, 252, 385, 250, 74}, 0, 10, Continue},
		{pentaTest{527, 1007, 1932, 933, 511}, 0, 5, AcceptH0},
		{pentaTest{175, 305, 694, 291, 157}, 0, 10, AcceptH0},
	}
	for i, test := range tests {
		var sprt = SPRT{Elo0: test.elo0, Elo1: test.elo1, Alpha: 0.05, Beta: 0.10}
		if d := sprt.Decide(test.penta.pentanomial()); d != test.decision {
			t.Error(i, d, sprt.LLR(test.penta.pentanomial()))
		}
	}
}

func TestSPRTLLR(t *testing.T) {
	var tests = []struct {
		penta      pentaTest
		elo0, elo1 float64
		llr        float64
	}{
		{pentaTest{440, 2910, 5170, 2888, 455}, 0, 5, -2.27},
		{pentaTest{142, 620, 1122, 699, 188}, 0, 5, 2.99},
		{pentaTest{349, 1561, 3340, 1604, 359}, -5, 0, 2.90},
		{pentaTest{98, 382, 674, 369, 71}, -5, 0, -1.11},
	}
	for i, test := range tests {
		var sprt = SPRT{Elo0: test.elo0, Elo1: test.elo1, Alpha: 0.05, Beta: 0.10}
		if llr := sprt.LLR(test.penta.pentanomial()); !near(llr, test.llr) {
			t.Error(i, llr)
		}
	}
	var lower, upper = SPRT{Alpha: 0.05, Beta: 0.10}.Bounds()
	if !near(lower, -2.25) || !near(upper, 2.89) {
		t.Error(lower, upper)
	}
	if err := (SPRT{Elo0: 5, Elo1: 0, Alpha: 0.05, Beta: 0.1}).Validate(); err == nil {
		t.Error("elo0 > elo1 accepted")
	}
}

func TestPentanomialAdd(t *testing.T) {
	var p Pentanomial
	var pairs = [][2]float64{{0, 0}, {0.5, 0}, {0, 0.5}, {0.5, 0.5}, {1, 0}, {0, 1}, {1, 0.5}, {1, 1}}
	for _, pair := range pairs {
		p.Add(pair[0], pair[1])
	}
	if p != (Pentanomial{LL: 1, DL: 2, DD: 1, WL: 2, WD: 1, WW: 1}) {
		t.Error(p)
	}
	if p.Pairs() != len(pairs) {
		t.Error(p.Pairs())
	}
}

func TestTrinomial(t *testing.T) {
	var tri Trinomial
	for _, score := range []float64{1, 1, 0.5, 0} {
		tri.Add(score)
	}
	if tri != (Trinomial{Wins: 2, Draws: 1, Losses: 1}) {
		t.Error(tri)
	}
	var stat = computeStat(tri.Wins, tri.Losses, tri.Draws)
	if !near(stat.WinningFraction, 0.625) || !near(stat.EloDifference, 88.74) {
		t.Error(stat)
	}
	if !near(tri.LogisticElo().Mean, 88.74) {
		t.Error(tri.LogisticElo())
	}
	var all = Trinomial{Wins: 10}
	if elo := all.LogisticElo().Mean; math.IsNaN(elo) || elo < 1000 {
		t.Error("all wins must give a large finite elo", elo)
	}
	if s := (Interval{math.NaN(), math.Inf(1), 3}).String(); s != "+INF (N/A, +3.00)" {
		t.Error(s)
	}
}
