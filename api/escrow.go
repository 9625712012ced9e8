package api

import (
	"errors"
	"net/http"

	"github.com/StayBridge/StayBridge-Backend/api/apistrings"
	models "github.com/StayBridge/StayBridge-Backend/api/models"
	basemodels "github.com/StayBridge/StayBridge-Backend/models"
	"github.com/StayBridge/StayBridge-Backend/services/escrow"
	"github.com/StayBridge/StayBridge-Backend/services/wallet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Escrow struct {
	server *Server
}

func (e Escrow) router(server *Server) {
	e.server = server

	serverGroupV1 := server.router.Group("/api/v1/escrow")
	serverGroupV1.POST("", AuthenticatedMiddleware(), e.createEscrow)
	serverGroupV1.POST(":id/request-payment", AuthenticatedMiddleware(), e.requestPayment)
	serverGroupV1.POST(":id/release", AuthenticatedMiddleware(), e.release)
	serverGroupV1.POST(":id/cancel", AuthenticatedMiddleware(), e.cancel)
	serverGroupV1.POST(":id/refund", AuthenticatedMiddleware(), e.refund)
	serverGroupV1.GET("by-booking/:bookingId", AuthenticatedMiddleware(), e.getByBooking)
}

func (e *Escrow) createEscrow(ctx *gin.Context) {
	request := models.CreateEscrowRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidEscrowInput))
		return
	}

	bookingID, err := uuid.Parse(request.BookingID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidEscrowInput))
		return
	}

	record, err := e.server.escrows.Create(ctx, escrow.CreateEscrowRequest{
		BookingID:   bookingID,
		Amount:      request.Amount,
		Currency:    request.Currency,
		BuyerID:     request.BuyerRef,
		SellerID:    request.SellerRef,
		ProviderRef: request.ProviderRef,
		Conditions:  request.Conditions,
	})
	if err != nil {
		e.escrowError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Escrow Created Successfully", record))
}

func (e *Escrow) requestPayment(ctx *gin.Context) {
	escrowID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidEscrowInput))
		return
	}

	record, err := e.server.escrows.RequestPayment(ctx, escrowID)
	if err != nil {
		e.escrowError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Payment Requested Successfully", record))
}

func (e *Escrow) release(ctx *gin.Context) {
	escrowID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidEscrowInput))
		return
	}

	record, err := e.server.escrows.Release(ctx, escrowID)
	if err != nil {
		e.escrowError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Escrow Released Successfully", record))
}

func (e *Escrow) cancel(ctx *gin.Context) {
	e.terminate(ctx, false)
}

func (e *Escrow) refund(ctx *gin.Context) {
	e.terminate(ctx, true)
}

func (e *Escrow) terminate(ctx *gin.Context, refund bool) {
	escrowID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidEscrowInput))
		return
	}

	request := models.CancelEscrowRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidEscrowInput))
		return
	}

	var record *escrow.EscrowModel
	if refund {
		record, err = e.server.escrows.Refund(ctx, escrowID, request.Reason)
	} else {
		record, err = e.server.escrows.Cancel(ctx, escrowID, request.Reason)
	}
	if err != nil {
		e.escrowError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Escrow Settled Successfully", record))
}

func (e *Escrow) getByBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidEscrowInput))
		return
	}

	record, err := e.server.escrows.GetByBooking(ctx, bookingID)
	if err != nil {
		e.escrowError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Escrow Fetched Successfully", record))
}

func (e *Escrow) escrowError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, escrow.ErrEscrowNotFound):
		ctx.JSON(http.StatusNotFound, basemodels.NewError(apistrings.EscrowNotFound))
	case errors.Is(err, escrow.ErrInvalidState):
		ctx.JSON(http.StatusConflict, basemodels.NewError(apistrings.IllegalTransition))
	case errors.Is(err, escrow.ErrInvalidAmount):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidAmount))
	case errors.Is(err, wallet.ErrEscrowNotFound):
		ctx.JSON(http.StatusNotFound, basemodels.NewError(apistrings.EscrowNotFound))
	case errors.Is(err, wallet.ErrInsufficientFunds):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InsufficientFunds))
	case errors.Is(err, wallet.ErrWalletLimit):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.WalletLimitExceeded))
	case errors.Is(err, wallet.ErrPaymentFailed):
		ctx.JSON(http.StatusPaymentRequired, basemodels.NewError(apistrings.PaymentDeclined))
	default:
		e.server.logger.Error("Escrow Error", err)
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
	}
}
