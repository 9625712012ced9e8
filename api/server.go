package api

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	db "github.com/StayBridge/StayBridge-Backend/db/store"
	"github.com/StayBridge/StayBridge-Backend/models"
	"github.com/StayBridge/StayBridge-Backend/providers"
	"github.com/StayBridge/StayBridge-Backend/providers/payment"
	"github.com/StayBridge/StayBridge-Backend/services/escrow"
	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
	"github.com/StayBridge/StayBridge-Backend/services/wallet"
	"github.com/StayBridge/StayBridge-Backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// / If there's a better place to access this
// / TODO, I feel the config should be the one accessible like this
var TokenController *utils.JWTToken

var supportedCurrencies = []string{"EUR", "USD", "GBP"}

type Server struct {
	router   *gin.Engine
	store    *db.Store
	config   *utils.Config
	logger   *logging.Logger
	provider *providers.ProviderService
	wallets  *wallet.WalletService
	escrows  *escrow.EscrowService
}

func NewServer(envPath string) *Server {
	c, err := utils.LoadConfig(envPath)
	if err != nil {
		panic(fmt.Sprintf("Could not load config: %v", err))
	}

	conn, err := sql.Open(c.DBDriver, utils.GetDBSource(c, c.DBName))
	if err != nil {
		panic(fmt.Sprintf("Could not load DB: %v", err))
	}

	m, err := migrate.New(
		"file://db/migrations",
		utils.GetDBSource(c, c.DBName),
	)
	if err != nil {
		log.Fatalf("Unable to instantiate the database schema migrator - %v", err)
	}

	if err := m.Up(); err != nil {
		if err != migrate.ErrNoChange {
			log.Fatalf("Unable to migrate up to the latest database schema - %v", err)
		}
	}

	store := db.NewStore(conn)
	g := gin.Default()
	l := logging.NewLogger(c.Papertrail, c.PapertrailAppName)
	p := providers.NewProviderService()

	// Set up the payment gateway
	gateway := payment.NewPaystackProvider()
	p.AddProvider(gateway)

	refs, err := utils.NewReferenceGenerator(c.SigningKey)
	if err != nil {
		log.Fatalf("Unable to initialise the reference generator - %v", err)
	}

	wallets, err := wallet.NewWalletService(store, gateway, refs, l, c)
	if err != nil {
		log.Fatalf("Unable to initialise the wallet service - %v", err)
	}
	escrows := escrow.NewEscrowService(store, wallets, gateway, l)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
			for _, code := range supportedCurrencies {
				if fl.Field().String() == code {
					return true
				}
			}
			return false
		})
	}

	g.Use(CORSMiddleware())
	g.Use(l.LoggingMiddleWare())

	TokenController = utils.NewJWTToken(c)

	return &Server{
		router:   g,
		store:    store,
		config:   c,
		logger:   l,
		provider: p,
		wallets:  wallets,
		escrows:  escrows,
	}
}

func (s *Server) Start() {

	dr := models.SuccessResponse{
		Status:  "success",
		Message: "Welcome to StayBridge!",
		Version: utils.REVISION,
	}

	s.router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dr)
	})

	/// Register Object Routers Below
	Wallet{}.router(s)
	Escrow{}.router(s)

	s.router.Run(fmt.Sprintf(":%v", s.config.ServerPort))
}
