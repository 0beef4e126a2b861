package service

import (
	"github.com/samber/lo"

	"github.com/limaJavier/examscheduling/pkg/model"
)

type ViolationSummary struct {
	Message  string   `json:"message"`
	Entities []string `json:"entities,omitempty"`
}

type CheckSummary struct {
	Name       string             `json:"name"`
	Passed     bool               `json:"passed"`
	Violations []ViolationSummary `json:"violations"`
}

// VerificationResult is the published form of a verification report.
type VerificationResult struct {
	Passed bool           `json:"passed"`
	Checks []CheckSummary `json:"checks"`
}

func NewVerificationResult(report model.Report) *VerificationResult {
	return &VerificationResult{
		Passed: report.Passed(),
		Checks: lo.Map(report.Checks, func(check model.CheckResult, _ int) CheckSummary {
			return CheckSummary{
				Name:   check.Name,
				Passed: check.Passed(),
				Violations: lo.Map(check.Violations, func(violation model.Violation, _ int) ViolationSummary {
					return ViolationSummary{Message: violation.Message, Entities: violation.Entities}
				}),
			}
		}),
	}
}
