// Package core contains the core domain types for arbiter.
package core

import "strings"

// Mode identifies the protocol revision carried in packets and responses.
const Mode = "debate-v0.1"

// Role is one of the five fixed debate participants.
type Role string

const (
	RoleProponent   Role = "Proponent"
	RoleCritic      Role = "Critic"
	RoleAnalyst     Role = "Analyst"
	RoleSynthesizer Role = "Synthesizer"
	RoleJudge       Role = "Judge"
)

// Roles returns the five fixed roles in protocol order.
func Roles() [5]Role {
	return [5]Role{RoleProponent, RoleCritic, RoleAnalyst, RoleSynthesizer, RoleJudge}
}

// ParseRole maps a free-form role name to a fixed Role.
func ParseRole(value string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "proponent":
		return RoleProponent, true
	case "critic":
		return RoleCritic, true
	case "analyst":
		return RoleAnalyst, true
	case "synthesizer":
		return RoleSynthesizer, true
	case "judge":
		return RoleJudge, true
	}
	return "", false
}

// Round is one of the three fixed argumentation rounds.
type Round string

const (
	Round1 Round = "round-1"
	Round2 Round = "round-2"
	Round3 Round = "round-3"
)

// Rounds returns the three fixed rounds in protocol order.
func Rounds() [3]Round {
	return [3]Round{Round1, Round2, Round3}
}

// Number returns the 1-based round number, or 0 for an unknown round.
func (r Round) Number() int {
	switch r {
	case Round1:
		return 1
	case Round2:
		return 2
	case Round3:
		return 3
	}
	return 0
}

// State is one phase of the debate state machine.
type State string

const (
	StateIntake    State = "Intake"
	StateRound1    State = "Round1"
	StateRound2    State = "Round2"
	StateRound3    State = "Round3"
	StateConsensus State = "Consensus"
	StateJudge     State = "Judge"
	StatePacketize State = "Packetize"
	StateWriteback State = "Writeback"
)

// OutputType is the kind of outcome a run is expected to produce.
type OutputType string

const (
	OutputDecision     OutputType = "decision"
	OutputWriting      OutputType = "writing"
	OutputArchitecture OutputType = "architecture"
	OutputPlanning     OutputType = "planning"
	OutputEvaluation   OutputType = "evaluation"
)

// ParseOutputType validates a free-form output type value.
func ParseOutputType(value string) (OutputType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "decision":
		return OutputDecision, true
	case "writing":
		return OutputWriting, true
	case "architecture":
		return OutputArchitecture, true
	case "planning":
		return OutputPlanning, true
	case "evaluation":
		return OutputEvaluation, true
	}
	return "", false
}

// TurnStatus marks whether a provider call resolved successfully.
type TurnStatus string

const (
	TurnOK     TurnStatus = "ok"
	TurnFailed TurnStatus = "failed"
)

// ParticipantConfig is one requested role binding in a run request.
type ParticipantConfig struct {
	Role          string `json:"role,omitempty"`
	ModelProvider string `json:"modelProvider,omitempty"`
	ModelName     string `json:"modelName,omitempty"`
}

// Request is the caller-facing input of a debate run.
type Request struct {
	Problem             string              `json:"problem"`
	Constraints         []string            `json:"constraints,omitempty"`
	OutputType          string              `json:"outputType"`
	Participants        []ParticipantConfig `json:"participants,omitempty"`
	MaxTurnSeconds      int                 `json:"maxTurnSeconds,omitempty"`
	MaxTurnTokens       int                 `json:"maxTurnTokens,omitempty"`
	WritebackRecordType string              `json:"writebackRecordType,omitempty"`
}

// Participant is a normalized role binding used at runtime.
type Participant struct {
	Role          Role   `json:"role"`
	ModelProvider string `json:"modelProvider"`
	ProviderType  string `json:"providerType"`
	ModelName     string `json:"modelName"`
}

// NormalizedRequest is a validated, defaulted run request.
type NormalizedRequest struct {
	Problem             string
	Constraints         []string
	OutputType          OutputType
	Participants        [5]Participant
	MaxTurnSeconds      int
	MaxTurnTokens       int
	WritebackRecordType string
	WarningCodes        []string
}

// Challenge is a round-2 cross-examination record.
type Challenge struct {
	SourceRole string `json:"sourceRole"`
	TargetRole string `json:"targetRole"`
	Question   string `json:"question"`
	Response   string `json:"response"`
}

// Turn is one role's structured output within one round. Turns are
// created when a provider call resolves and never mutated afterward.
type Turn struct {
	Role          Role        `json:"role"`
	Round         Round       `json:"round"`
	ModelProvider string      `json:"modelProvider"`
	ModelName     string      `json:"modelName"`
	Status        TurnStatus  `json:"status"`
	Claim         string      `json:"claim"`
	Rationale     string      `json:"rationale"`
	Risks         []string    `json:"risks"`
	Challenges    []Challenge `json:"challenges"`
	Revisions     []string    `json:"revisions"`
	TargetRole    string      `json:"targetRole,omitempty"`
	DurationMs    int64       `json:"durationMs"`
	ErrorCode     string      `json:"errorCode,omitempty"`
	ErrorMessage  string      `json:"errorMessage,omitempty"`
	StartedAt     string      `json:"startedAt"`
	FinishedAt    string      `json:"finishedAt"`
}

// RoundArtifact is the durable record of one completed round.
type RoundArtifact struct {
	Round      Round  `json:"round"`
	Turns      []Turn `json:"turns"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
}

// Consensus is derived once per run after round-3.
type Consensus struct {
	ConsensusScore   float64  `json:"consensusScore"`
	ConfidenceScore  float64  `json:"confidenceScore"`
	KeyAgreements    []string `json:"keyAgreements"`
	KeyDisagreements []string `json:"keyDisagreements"`
}

// RejectedOption is a judged-out alternative with its reason.
type RejectedOption struct {
	Option string `json:"option"`
	Reason string `json:"reason"`
}

// Decision is the judged outcome of a run.
type Decision struct {
	SelectedOption  string           `json:"selectedOption"`
	WhySelected     []string         `json:"whySelected"`
	RejectedOptions []RejectedOption `json:"rejectedOptions"`
}

// Risk is one packet risk entry with severity and mitigation.
type Risk struct {
	Risk       string `json:"risk"`
	Severity   string `json:"severity"`
	Mitigation string `json:"mitigation"`
}

// Action is one entry of the packet's ordered action list.
type Action struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Owner  string `json:"owner"`
	Due    string `json:"due"`
}

// Trace links a packet back to its round and evidence artifacts.
type Trace struct {
	RoundRefs    []string `json:"roundRefs"`
	EvidenceRefs []string `json:"evidenceRefs"`
}

// Timestamps carries the packet's run boundary times (RFC 3339).
type Timestamps struct {
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
}

// PacketParticipant is the packet's view of one role binding.
type PacketParticipant struct {
	Role          string `json:"role"`
	ModelProvider string `json:"modelProvider"`
	ModelName     string `json:"modelName"`
}

// FinalPacket is the canonical, schema-validated output of a run.
// Downstream tooling consumes this JSON shape programmatically.
type FinalPacket struct {
	RunID        string              `json:"runId"`
	Mode         string              `json:"mode"`
	Problem      string              `json:"problem"`
	Constraints  []string            `json:"constraints"`
	OutputType   string              `json:"outputType"`
	Participants []PacketParticipant `json:"participants"`
	Consensus    Consensus           `json:"consensus"`
	Decision     Decision            `json:"decision"`
	Risks        []Risk              `json:"risks"`
	NextActions  []Action            `json:"nextActions"`
	Trace        Trace               `json:"trace"`
	Timestamps   Timestamps          `json:"timestamps"`
}

// Response is the caller-facing output of a completed debate run.
type Response struct {
	RunID             string      `json:"runId"`
	Mode              string      `json:"mode"`
	State             State       `json:"state"`
	Degraded          bool        `json:"degraded"`
	FinalPacket       FinalPacket `json:"finalPacket"`
	ArtifactsRoot     string      `json:"artifactsRoot"`
	WritebackJSONPath string      `json:"writebackJsonPath,omitempty"`
	ErrorCodes        []string    `json:"errorCodes"`
}

// ReplayConsistency reports file/index agreement for a replayed run.
type ReplayConsistency struct {
	FilesComplete bool     `json:"filesComplete"`
	Indexed       bool     `json:"indexed"`
	Issues        []string `json:"issues"`
}

// RunSummary is a lightweight representation for listing runs.
type RunSummary struct {
	RunID          string  `json:"runId"`
	Problem        string  `json:"problem"`
	Provider       string  `json:"provider"`
	OutputType     string  `json:"outputType"`
	SelectedOption string  `json:"selectedOption"`
	ConsensusScore float64 `json:"consensusScore"`
	Degraded       bool    `json:"degraded"`
	StartedAt      string  `json:"startedAt"`
	FinishedAt     string  `json:"finishedAt"`
	ArtifactsRoot  string  `json:"artifactsRoot"`
}
