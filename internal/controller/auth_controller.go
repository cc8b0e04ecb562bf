package controller

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"quiz-session-backend/internal/service"
	"quiz-session-backend/utilities"
)

const limiterSweepInterval = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type AuthController struct {
	AuthService service.AuthService

	limit rate.Limit
	burst int

	// idle is how long a client must stay quiet for its bucket to be full again;
	// after that its limiter carries no state and can be dropped.
	idle time.Duration
	now  func() time.Time

	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	lastSweep time.Time
}

func NewAuthController(authService service.AuthService, perSecond float64, burst int) *AuthController {
	if burst <= 0 {
		burst = 1
	}
	idle := time.Minute
	if perSecond > 0 {
		if refill := time.Duration(float64(burst) / perSecond * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &AuthController{
		AuthService: authService,
		limit:       rate.Limit(perSecond),
		burst:       burst,
		idle:        idle,
		now:         time.Now,
		limiters:    make(map[string]*clientLimiter),
	}
}

// allow spends one login attempt for client.
func (ac *AuthController) allow(client string) bool {
	now := ac.now()

	ac.mu.Lock()
	defer ac.mu.Unlock()
	if now.Sub(ac.lastSweep) >= limiterSweepInterval {
		ac.evictIdleLocked(now)
		ac.lastSweep = now
	}
	cl, ok := ac.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(ac.limit, ac.burst)}
		ac.limiters[client] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (ac *AuthController) evictIdleLocked(now time.Time) {
	for client, cl := range ac.limiters {
		if now.Sub(cl.lastSeen) > ac.idle {
			delete(ac.limiters, client)
		}
	}
}

// Login handles POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	if !ac.allow(c.ClientIP()) {
		utilities.Warn("login throttled for %s", c.ClientIP())
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	token, err := ac.AuthService.Login(req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}
	if err != nil {
		utilities.Error("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
