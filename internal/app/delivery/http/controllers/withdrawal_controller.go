package controllers

import (
	"context"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/dto/requests"
	"medilab-service/internal/pkg/dto/responses"
	"medilab-service/internal/pkg/exceptions"
	"medilab-service/internal/pkg/utils"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type WithdrawalController struct {
	WithdrawalUsecase contracts.WithdrawalUsecase
	Log               *zap.Logger
}

func NewWithdrawalController(withdrawalUsecase contracts.WithdrawalUsecase, logger *zap.Logger) *WithdrawalController {
	return &WithdrawalController{
		WithdrawalUsecase: withdrawalUsecase,
		Log:               logger,
	}
}

// CreateWithdrawal handles POST /payments/withdrawals.
func (ctrl *WithdrawalController) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	request := new(requests.CreateWithdrawal)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	withdrawal, err := ctrl.WithdrawalUsecase.InitiateWithdrawal(ctx, request)
	if err != nil {
		if err == context.DeadlineExceeded {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	response := &responses.WithdrawalResponse{
		WithdrawalID: withdrawal.ID,
		PayoutRef:    withdrawal.PayoutRef,
		Amount:       withdrawal.Amount,
		Fee:          withdrawal.Fee,
		Status:       string(withdrawal.Status),
	}
	utils.BuildSuccessResponse(w, constvars.StatusAccepted, constvars.WithdrawalSubmittedMessage, response)
}
