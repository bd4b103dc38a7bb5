package services

import (
	"github.com/lookjihoon/AI-Interview-System-V2/config"
	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

type Phase string

const (
	PhaseSelfIntro              Phase = "SELF_INTRO"
	PhaseTechnical              Phase = "TECHNICAL"
	PhaseBehavioralTeam         Phase = "BEHAVIORAL_TEAM"
	PhaseBehavioralTeamFollowUp Phase = "BEHAVIORAL_TEAM_FOLLOWUP"
	PhasePersonality            Phase = "PERSONALITY"
	PhasePersonalityFollowUp    Phase = "PERSONALITY_FOLLOWUP"
	PhaseClosing                Phase = "CLOSING"
	PhaseTerminal               Phase = "TERMINAL"
)

// SelfIntroMarker is the substring scanned for on AI transcript rows to
// detect whether the fixed self-introduction prompt was already asked.
// Legacy rows carry no turn_kind, so the content check stays as a
// migration-compatibility fallback.
const SelfIntroMarker = "자기소개"

// PhaseForTurn maps the number of human answers given so far to the phase.
// Pure function of t and the configured boundaries; recomputed every turn so
// replaying a transcript reconstructs the exact state after a crash.
func PhaseForTurn(t int, cfg config.Interview) Phase {
	switch {
	case t <= 0:
		return PhaseSelfIntro
	case t > cfg.ClosingTurn:
		return PhaseTerminal
	case t >= cfg.ClosingTurn:
		return PhaseClosing
	case t >= cfg.TechnicalFrom && t <= cfg.TechnicalTo:
		return PhaseTechnical
	case t == cfg.TeamTurn:
		return PhaseBehavioralTeam
	case t == cfg.TeamFollowUpTurn:
		return PhaseBehavioralTeamFollowUp
	case t == cfg.PersonalityTurn:
		return PhasePersonality
	case t == cfg.PersonalityFollowUpTurn:
		return PhasePersonalityFollowUp
	default:
		// any gap the configured boundaries leave
		return PhaseTechnical
	}
}

func (p Phase) IsGenerative() bool {
	switch p {
	case PhaseBehavioralTeam, PhaseBehavioralTeamFollowUp, PhasePersonality, PhasePersonalityFollowUp:
		return true
	}
	return false
}

// TurnCount derives the current turn from the transcript log instead of a
// stored counter, so the two can never drift apart.
func (s *Interview) TurnCount(sessionID uint) (int, error) {
	var n int64
	err := s.DB.Model(&domain.Transcript{}).
		Where("session_id = ? AND sender = ?", sessionID, domain.SenderHuman).
		Count(&n).Error
	return int(n), err
}

// HasSelfIntroBeenAsked reports whether the self-introduction prompt exists
// in this session's transcript. Synthetic turns have no question id, so the
// content marker is the only signal that works for legacy data.
func (s *Interview) HasSelfIntroBeenAsked(sessionID uint) (bool, error) {
	var n int64
	err := s.DB.Model(&domain.Transcript{}).
		Where("session_id = ? AND sender = ? AND content LIKE ?",
			sessionID, domain.SenderAI, "%"+SelfIntroMarker+"%").
		Count(&n).Error
	return n > 0, err
}
