package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lookjihoon/AI-Interview-System-V2/config"
)

func TestPhaseForTurn(t *testing.T) {
	cfg := config.DefaultInterview()

	tests := []struct {
		turn int
		want Phase
	}{
		{0, PhaseSelfIntro},
		{1, PhaseTechnical},
		{2, PhaseTechnical},
		{3, PhaseBehavioralTeam},
		{4, PhaseBehavioralTeamFollowUp},
		{5, PhasePersonality},
		{6, PhasePersonalityFollowUp},
		{7, PhaseClosing},
		{8, PhaseTerminal},
		{20, PhaseTerminal},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PhaseForTurn(tc.turn, cfg), "turn %d", tc.turn)
	}
}

func TestPhaseForTurnIsIdempotent(t *testing.T) {
	cfg := config.DefaultInterview()
	for turn := 0; turn <= 10; turn++ {
		first := PhaseForTurn(turn, cfg)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, PhaseForTurn(turn, cfg))
		}
	}
}

func TestPhaseForTurnHonorsConfiguredBoundaries(t *testing.T) {
	cfg := config.DefaultInterview()
	cfg.ClosingTurn = 6

	assert.Equal(t, PhaseClosing, PhaseForTurn(6, cfg))
	assert.Equal(t, PhaseTerminal, PhaseForTurn(7, cfg))
	// personality follow-up slot is swallowed by the earlier closing turn
	assert.Equal(t, PhasePersonality, PhaseForTurn(5, cfg))
}

func TestPhaseForTurnTechnicalWindowIsConfigurable(t *testing.T) {
	cfg := config.DefaultInterview()
	cfg.TechnicalTo = 3

	// a widened technical window takes the turn away from the team slot
	assert.Equal(t, PhaseTechnical, PhaseForTurn(3, cfg))
	assert.Equal(t, PhaseBehavioralTeamFollowUp, PhaseForTurn(4, cfg))
}

func TestGenerativePhases(t *testing.T) {
	assert.True(t, PhaseBehavioralTeam.IsGenerative())
	assert.True(t, PhaseBehavioralTeamFollowUp.IsGenerative())
	assert.True(t, PhasePersonality.IsGenerative())
	assert.True(t, PhasePersonalityFollowUp.IsGenerative())
	assert.False(t, PhaseSelfIntro.IsGenerative())
	assert.False(t, PhaseTechnical.IsGenerative())
	assert.False(t, PhaseClosing.IsGenerative())
}
