package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"delivery-system/pkg/config"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/database/postgresql"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/filestorage"
	"delivery-system/pkg/onesignal"
	"delivery-system/pkg/service"
	"delivery-system/pkg/utils"
	"delivery-system/pkg/validation"
	"delivery-system/pkg/websocket"
)

const (
	adminEmail    = "admin@test.tj"
	adminPassword = "secret123"
)

type envelope struct {
	Status  bool            `json:"status"`
	Body    json.RawMessage `json:"body"`
	Message string          `json:"message"`
}

// OrderTestSuite прогоняет сквозной сценарий заказа через HTTP-роутер.
type OrderTestSuite struct {
	suite.Suite
	Echo  *echo.Echo
	DB    *pgxpool.Pool
	Redis *redis.Client
	Bus   *eventbus.Bus

	containers []testcontainers.Container
	cancelHub  context.CancelFunc
	token      string
}

func (s *OrderTestSuite) SetupSuite() {
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("delivery_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		s.T().Skipf("PostgreSQL-контейнер не запущен: %v", err)
	}
	s.containers = append(s.containers, pg)

	rd, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		s.T().Skipf("Redis-контейнер не запущен: %v", err)
	}
	s.containers = append(s.containers, rd)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.DB, err = postgresql.ConnectDB(ctx, dsn, zap.NewNop())
	s.Require().NoError(err)
	s.Require().NoError(postgresql.Migrate(ctx, s.DB, "up"))

	redisAddr, err := rd.Endpoint(ctx, "")
	s.Require().NoError(err)
	s.Redis = redis.NewClient(&redis.Options{Addr: redisAddr})

	storage, err := filestorage.NewLocalFileStorage(s.T().TempDir())
	s.Require().NoError(err)

	nop := zap.NewNop()
	cfg := &config.Config{
		JWT:  config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour},
		Auth: config.AuthConfig{MaxLoginAttempts: 5, LockoutDuration: time.Minute, BankKeyTTL: 24 * time.Hour},
	}

	hubCtx, cancel := context.WithCancel(ctx)
	s.cancelHub = cancel
	hub := websocket.NewHub(nop)
	go hub.Run(hubCtx)
	s.Bus = eventbus.New(nop)

	e := echo.New()
	e.Validator = validation.New()
	InitRouter(e, Dependencies{
		DB:          s.DB,
		Redis:       s.Redis,
		JWT:         service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL),
		Hub:         hub,
		Bus:         s.Bus,
		FileStorage: storage,
		Push:        onesignal.NewService("", "", "", nop),
		Loggers:     &Loggers{Main: nop, Auth: nop, Order: nop, User: nop},
		Config:      cfg,
	})
	s.Echo = e

	hash, err := utils.HashPassword(adminPassword)
	s.Require().NoError(err)
	_, err = s.DB.Exec(ctx,
		`INSERT INTO users (name, email, password, role, is_active) VALUES ('Админ', $1, $2, $3, true)`,
		adminEmail, hash, constants.RoleAdmin)
	s.Require().NoError(err)

	rec := s.request(http.MethodPost, "/api/login", map[string]string{"email": adminEmail, "password": adminPassword})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	s.decode(rec, &login)
	s.Require().NotEmpty(login.Token)
	s.token = login.Token
}

func (s *OrderTestSuite) TearDownSuite() {
	if s.Bus != nil {
		s.Bus.Wait()
	}
	if s.cancelHub != nil {
		s.cancelHub()
	}
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	for _, c := range s.containers {
		_ = c.Terminate(context.Background())
	}
}

func (s *OrderTestSuite) request(method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if s.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *OrderTestSuite) decode(rec *httptest.ResponseRecorder, target interface{}) {
	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	s.Require().True(env.Status, env.Message)
	s.Require().NoError(json.Unmarshal(env.Body, target))
}

func (s *OrderTestSuite) TestOrderLifecycle() {
	rec := s.request(http.MethodPost, "/api/banks", map[string]interface{}{"name": "Алиф Банк", "order_prefix": "AL"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var bank struct {
		ID uint64 `json:"id"`
	}
	s.decode(rec, &bank)

	rec = s.request(http.MethodPost, "/api/orders", map[string]interface{}{
		"bank_id":     bank.ID,
		"product":     "Кредитная карта",
		"name":        "Али",
		"surname":     "Рахимов",
		"patronymic":  "Саидович",
		"phone":       "+992900112233",
		"address":     "ул. Рудаки, 1",
		"delivery_at": "20.10.2026 14:30",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID            uint64  `json:"id"`
		OrderNumber   *string `json:"order_number"`
		OrderStatusID uint64  `json:"order_status_id"`
	}
	s.decode(rec, &created)
	s.Require().NotNil(created.OrderNumber)
	s.Equal("AL00001", *created.OrderNumber)
	s.Equal(constants.OrderStatusNew, created.OrderStatusID)

	orderPath := fmt.Sprintf("/api/orders/%d", created.ID)
	rec = s.request(http.MethodGet, orderPath, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.request(http.MethodPatch, orderPath+"/status", map[string]interface{}{"order_status_id": constants.OrderStatusCompleted})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var changed struct {
		OrderStatusID uint64     `json:"order_status_id"`
		DeliveredAt   *time.Time `json:"delivered_at"`
	}
	s.decode(rec, &changed)
	s.Equal(constants.OrderStatusCompleted, changed.OrderStatusID)
	s.NotNil(changed.DeliveredAt)

	rec = s.request(http.MethodDelete, orderPath, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.request(http.MethodGet, orderPath, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *OrderTestSuite) TestUnauthorizedWithoutToken() {
	token := s.token
	s.token = ""
	defer func() { s.token = token }()

	rec := s.request(http.MethodGet, "/api/orders", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func TestOrderTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционный тест")
	}
	suite.Run(t, new(OrderTestSuite))
}
