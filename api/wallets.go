package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/StayBridge/StayBridge-Backend/api/apistrings"
	models "github.com/StayBridge/StayBridge-Backend/api/models"
	basemodels "github.com/StayBridge/StayBridge-Backend/models"
	"github.com/StayBridge/StayBridge-Backend/services/wallet"
	"github.com/StayBridge/StayBridge-Backend/utils"
	"github.com/gin-gonic/gin"
)

type Wallet struct {
	server *Server
}

func (w Wallet) router(server *Server) {
	w.server = server

	serverGroupV1 := server.router.Group("/api/v1/wallets")
	serverGroupV1.GET("", AuthenticatedMiddleware(), w.getWallet)
	serverGroupV1.POST("deposit", AuthenticatedMiddleware(), w.deposit)
	serverGroupV1.POST("withdraw", AuthenticatedMiddleware(), w.withdraw)
	serverGroupV1.POST("transfer", AuthenticatedMiddleware(), w.transfer)
	serverGroupV1.GET("transactions", AuthenticatedMiddleware(), w.getTransactions)
}

func (w *Wallet) getWallet(ctx *gin.Context) {
	// Fetch user details
	activeUser, err := utils.GetActiveUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, basemodels.NewError(apistrings.UserNotFound))
		return
	}

	userWallet, err := w.server.wallets.GetWallet(ctx, activeUser.UserID)
	if errors.Is(err, wallet.ErrWalletNotFound) {
		// Wallets come into being on first funding; an unfunded owner
		// still sees a zero balance.
		ctx.JSON(http.StatusOK, basemodels.NewSuccess("User Wallet Fetched Successfully", models.WalletResponse{
			Balance:  0,
			Currency: w.server.config.BaseCurrency,
			Status:   wallet.StatusActive,
		}))
		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("User Wallet Fetched Successfully", models.ToWalletResponse(userWallet)))
}

func (w *Wallet) deposit(ctx *gin.Context) {
	request := models.DepositRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidWalletInput))
		return
	}

	activeUser, err := utils.GetActiveUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, basemodels.NewError(apistrings.UserNotFound))
		return
	}

	customerRef := request.CustomerRef
	if customerRef == "" {
		customerRef = strconv.FormatInt(activeUser.UserID, 10)
	}

	tx, err := w.server.wallets.Deposit(ctx, activeUser.UserID, request.Amount, customerRef)
	if err != nil {
		w.walletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Deposit Completed Successfully", tx))
}

func (w *Wallet) withdraw(ctx *gin.Context) {
	request := models.WithdrawRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidWalletInput))
		return
	}

	activeUser, err := utils.GetActiveUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, basemodels.NewError(apistrings.UserNotFound))
		return
	}

	tx, err := w.server.wallets.Withdraw(ctx, activeUser.UserID, request.Amount, request.Destination)
	if err != nil {
		w.walletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Withdrawal Initiated Successfully", tx))
}

func (w *Wallet) transfer(ctx *gin.Context) {
	request := models.TransferRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransferInput))
		return
	}

	activeUser, err := utils.GetActiveUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, basemodels.NewError(apistrings.UserNotFound))
		return
	}

	tx, err := w.server.wallets.Transfer(ctx, activeUser.UserID, request.ToOwner, request.Amount)
	if err != nil {
		w.walletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Transfer Completed Successfully", tx))
}

func (w *Wallet) getTransactions(ctx *gin.Context) {
	activeUser, err := utils.GetActiveUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, basemodels.NewError(apistrings.UserNotFound))
		return
	}

	page, _ := strconv.ParseInt(ctx.DefaultQuery("page", "1"), 10, 32)
	size, _ := strconv.ParseInt(ctx.DefaultQuery("size", "20"), 10, 32)

	transactions, err := w.server.wallets.ListTransactions(ctx, activeUser.UserID, int32(page), int32(size))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("User Wallet Transactions Fetched Successfully", transactions))
}

func (w *Wallet) walletError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidAmount))
	case errors.Is(err, wallet.ErrInsufficientFunds):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InsufficientFunds))
	case errors.Is(err, wallet.ErrWalletNotFound):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.UserNoWallet))
	case errors.Is(err, wallet.ErrWalletSuspended):
		ctx.JSON(http.StatusForbidden, basemodels.NewError(apistrings.WalletSuspended))
	case errors.Is(err, wallet.ErrWalletLimit):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.WalletLimitExceeded))
	case errors.Is(err, wallet.ErrPaymentFailed):
		ctx.JSON(http.StatusPaymentRequired, basemodels.NewError(apistrings.PaymentDeclined))
	default:
		w.server.logger.Error("Wallet Error", err)
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
	}
}
