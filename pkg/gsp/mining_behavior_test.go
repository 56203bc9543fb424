package gsp

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// MiningBehaviorSuite exercises complete mining runs in Given/When/Then form
type MiningBehaviorSuite struct {
	suite.Suite
	ctx    context.Context
	logger *logrus.Logger

	// Scenario state
	config Config
	db     models.Database
	result *models.Result
	err    error
}

func TestMiningBehaviorSuite(t *testing.T) {
	suite.Run(t, new(MiningBehaviorSuite))
}

// SetupSuite runs once before all tests in the suite
func (s *MiningBehaviorSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = logrus.New()
	s.logger.SetLevel(logrus.WarnLevel)
}

// SetupTest resets the scenario before each test method
func (s *MiningBehaviorSuite) SetupTest() {
	s.config = Config{}
	s.db = nil
	s.result = nil
	s.err = nil
}

// Given sets up the initial state for a test scenario
func (s *MiningBehaviorSuite) Given(description string, setup func()) *MiningBehaviorSuite {
	s.logger.WithField("given", description).Debug("Setting up test scenario")
	setup()
	return s
}

// When executes the action being tested
func (s *MiningBehaviorSuite) When(description string, action func()) *MiningBehaviorSuite {
	s.logger.WithField("when", description).Debug("Executing test action")
	action()
	return s
}

// Then validates the expected outcome
func (s *MiningBehaviorSuite) Then(description string, validation func()) *MiningBehaviorSuite {
	s.logger.WithField("then", description).Debug("Validating test outcome")
	validation()
	return s
}

// And chains additional conditions or actions
func (s *MiningBehaviorSuite) And(description string, step func()) *MiningBehaviorSuite {
	s.logger.WithField("and", description).Debug("Additional test step")
	step()
	return s
}

func (s *MiningBehaviorSuite) mine() {
	miner, err := NewMiner(s.config, s.logger)
	s.Require().NoError(err)
	s.result, s.err = miner.Mine(s.ctx, s.db)
}

func (s *MiningBehaviorSuite) supportOf(p models.Pattern) (models.PatternSupport, bool) {
	return s.result.Lookup(p)
}

func (s *MiningBehaviorSuite) TestSingleWindowScenario() {
	s.Given("one window A, AB, B with max_gap 5", func() {
		s.db = models.Database{{event(0, "A_1"), event(1, "A_1", "B_0"), event(2, "B_0")}}
		s.config = Config{MinSupPct: 0, Constraints: Constraints{MinGap: 0, MaxGap: 5}}
	}).When("the database is mined", func() {
		s.mine()
	}).Then("single items have full support", func() {
		s.Require().NoError(s.err)
		ps, ok := s.supportOf(pattern(set("A_1")))
		s.Require().True(ok)
		s.Equal(1, ps.Count)
		s.InDelta(100.0, ps.SupportPct, 1e-9)
	}).And("A followed by B is frequent while B followed by A is not", func() {
		ps, ok := s.supportOf(pattern(set("A_1"), set("B_0")))
		s.Require().True(ok)
		s.Equal(1, ps.Count)

		_, ok = s.supportOf(pattern(set("B_0"), set("A_1")))
		s.False(ok)
	})
}

func (s *MiningBehaviorSuite) TestThresholdRoundsUp() {
	s.Given("two windows, only one containing X_1, at 50% support", func() {
		s.db = models.Database{
			{event(0, "X_1"), event(1, "Y_0")},
			{event(0, "Y_0")},
		}
		s.config = Config{MinSupPct: 50, Constraints: Constraints{MaxGap: 1}}
	}).When("the database is mined", func() {
		s.mine()
	}).Then("the threshold is one window and X_1 is frequent", func() {
		s.Require().NoError(s.err)
		s.Equal(1, s.result.MinSupportCount)
		ps, ok := s.supportOf(pattern(set("X_1")))
		s.Require().True(ok)
		s.Equal(1, ps.Count)
		s.InDelta(50.0, ps.SupportPct, 1e-9)
	})
}

func (s *MiningBehaviorSuite) TestNoFrequentItems() {
	s.Given("three windows with disjoint items at 50% support", func() {
		s.db = models.Database{{event(0, "A")}, {event(0, "B")}, {event(0, "C")}}
		s.config = Config{MinSupPct: 50, Constraints: Constraints{MaxGap: 1}}
	}).When("the database is mined", func() {
		s.mine()
	}).Then("the result is empty without an error", func() {
		s.NoError(s.err)
		s.True(s.result.IsEmpty())
		s.Equal(2, s.result.MinSupportCount)
	})
}

func (s *MiningBehaviorSuite) TestFrequentLevelsAreAntiMonotone() {
	s.Given("a market-like database at 30% support", func() {
		s.db = models.Database{
			{event(0, "A_1", "B_0"), event(1, "A_-1"), event(2, "A_1", "B_1"), event(3, "B_0")},
			{event(0, "A_1"), event(1, "B_0"), event(2, "A_-1", "B_1")},
			{event(0, "B_0"), event(1, "A_1", "B_0"), event(2, "A_-1"), event(4, "B_1")},
			{event(0, "A_1", "B_1"), event(1, "A_-1", "B_0")},
		}
		s.config = Config{MinSupPct: 30, Constraints: Constraints{MinGap: 1, MaxGap: 2, WinSize: WinSize(3)}}
	}).When("the database is mined", func() {
		s.mine()
	}).Then("mining finishes with more than one level", func() {
		s.Require().NoError(s.err)
		s.Greater(s.result.MaxLevel(), 1)
	}).And("every immediate subsequence of a level-k pattern is frequent at level k-1", func() {
		for _, k := range s.result.LevelNumbers() {
			if k == 1 {
				continue
			}
			prev := models.NewPatternSet()
			for _, ps := range s.result.Level(k - 1) {
				prev.Add(ps.Pattern)
			}
			for _, ps := range s.result.Level(k) {
				s.Len(Prune([]models.Pattern{ps.Pattern}, prev), 1, "pattern %s", ps.Pattern)
			}
		}
	}).And("every recorded count equals the number of containing windows", func() {
		for _, k := range s.result.LevelNumbers() {
			for _, ps := range s.result.Level(k) {
				expected := 0
				for _, w := range s.db {
					if Contains(ps.Pattern, w, s.config.Constraints) {
						expected++
					}
				}
				s.Equal(expected, ps.Count, "pattern %s", ps.Pattern)
				s.GreaterOrEqual(ps.Count, s.result.MinSupportCount)
			}
		}
	})
}

func (s *MiningBehaviorSuite) TestExtensionsNeverGainSupport() {
	s.Given("the market-like database at zero support", func() {
		s.db = models.Database{
			{event(0, "A"), event(1, "B"), event(2, "A", "C")},
			{event(0, "A", "B"), event(2, "C")},
			{event(1, "B"), event(2, "C")},
		}
		s.config = Config{MinSupPct: 0, Constraints: Constraints{MinGap: 0, MaxGap: 2}}
	}).When("the database is mined", func() {
		s.mine()
	}).Then("no pattern is more frequent than its frequent subsequences", func() {
		s.Require().NoError(s.err)
		for _, k := range s.result.LevelNumbers() {
			if k == 1 {
				continue
			}
			for _, ps := range s.result.Level(k) {
				p := ps.Pattern
				for i := 0; i < p.Len(); i++ {
					if p.Itemset(i).Len() == 1 {
						if sub, ok := s.result.Level(k - 1)[p.WithoutItemset(i).Key()]; ok {
							s.LessOrEqual(ps.Count, sub.Count, "%s vs %s", p, sub.Pattern)
						}
					}
				}
			}
		}
	})
}
