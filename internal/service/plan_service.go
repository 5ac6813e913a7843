package service

import "investment-ledger/internal/domain"

type PlanService struct {
	plans *domain.PlanTable
}

func NewPlanService(plans *domain.PlanTable) *PlanService {
	return &PlanService{plans: plans}
}

func (s *PlanService) ListPlans() []domain.Plan {
	return s.plans.All()
}
