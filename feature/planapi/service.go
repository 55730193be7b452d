package planapi

import (
	"encoding/json"

	"principal-sync/core/model"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// PlanOptions is the request-level subset of sync options.
type PlanOptions struct {
	RemoveDeleted bool `json:"removeDeleted"`
	MergeGroups   bool `json:"mergeGroups"`
	CreateGroups  bool `json:"createGroups"`
}

// ValidationResult reports whether a principals array is internally
// consistent.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Users  int      `json:"users"`
	Groups int      `json:"groups"`
	Issues []string `json:"issues,omitempty"`
}

// Service runs validation and plan computation on principal payloads.
type Service struct {
	logger *zap.Logger
}

// NewService creates a new plan service.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Validate parses a principals array and checks referential integrity.
// Parse errors are returned as an error; integrity issues are data.
func (s *Service) Validate(payload json.RawMessage) (*ValidationResult, error) {
	snap, err := model.ParsePrincipals(payload, model.DuplicateError)
	if err != nil {
		return nil, err
	}

	issues := snap.Validate()
	return &ValidationResult{
		Valid:  len(issues) == 0,
		Users:  snap.UserCount(),
		Groups: snap.GroupCount(),
		Issues: issues,
	}, nil
}

// Plan computes the change plan for desired vs current under the given
// options. A nil current payload means an empty target.
func (s *Service) Plan(desired, current json.RawMessage, opts PlanOptions) (*sync.Plan, error) {
	desiredSnap, err := model.ParsePrincipals(desired, model.DuplicateError)
	if err != nil {
		return nil, err
	}

	currentSnap := model.NewSnapshot()
	if len(current) > 0 {
		currentSnap, err = model.ParsePrincipals(current, model.DuplicateOverwrite)
		if err != nil {
			return nil, err
		}
	}

	return sync.Diff(desiredSnap, currentSnap, sync.Options{
		RemoveDeleted: opts.RemoveDeleted,
		MergeGroups:   opts.MergeGroups,
		CreateGroups:  opts.CreateGroups,
	})
}
