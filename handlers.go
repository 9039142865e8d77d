package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BlackBlossom/kmj-billing-system-sub001/models"
	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/billing"
)

const accessTokenTTL = 15 * time.Minute

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/auth/refresh-token", refreshHandler)
	r.POST("/auth/revoke", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/bills", createBillHandler)
	authGroup.GET("/bills", listBillsHandler)
	authGroup.GET("/bills/stats", billStatsHandler)
	authGroup.GET("/bills/:receiptNo", getBillHandler)
	admin := authGroup.Group("")
	admin.Use(requireRole("administrator"))
	admin.PATCH("/bills/:receiptNo/cancel", cancelBillHandler)
	admin.DELETE("/bills/:receiptNo", deleteBillHandler)
}

// jwtAuthMiddleware validates the bearer token. The 401 payload distinguishes
// an expired access token ("token expired") from a malformed or forged one
// ("invalid token"); the API client keys its refresh decision on that wording.
func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

// requireRole gates admin-only endpoints. 403 is an authorization failure,
// distinct from the 401s the refresh protocol reacts to.
func requireRole(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != name {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := signAccessToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refreshToken": refreshToken})
}

func signAccessToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleNameFor(user),
		"exp":      time.Now().Add(accessTokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	tokenString, err := signAccessToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refreshToken": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// createBillHandler creates a bill, assigning it the next receipt number.
func createBillHandler(c *gin.Context) {
	var req struct {
		MemberID      string `json:"memberId" binding:"required"`
		MemberName    string `json:"memberName"`
		MemberAddress string `json:"memberAddress"`
		Amount        int64  `json:"amount" binding:"required"`
		Category      string `json:"category" binding:"required"`
		AccountType   string `json:"accountType" binding:"required"`
		PaymentMethod string `json:"paymentMethod" binding:"required"`
		PaymentDate   string `json:"paymentDate"` // optional ISO8601 or YYYY-MM-DD
		Notes         string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	draft := &billing.Draft{
		MemberID:      req.MemberID,
		MemberName:    req.MemberName,
		MemberAddress: req.MemberAddress,
		Amount:        req.Amount,
		Category:      req.Category,
		AccountType:   req.AccountType,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if req.PaymentDate != "" {
		t, err := parseDateParam(req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid paymentDate"})
			return
		}
		draft.PaymentDate = t
	}
	rec, err := billingSvc.CreateBill(c.Request.Context(), draft)
	if err != nil {
		writeBillError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func listBillsHandler(c *gin.Context) {
	f, err := parseBillFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	bills, pg, err := billingSvc.ListBills(c.Request.Context(), f, page, limit)
	if err != nil {
		writeBillError(c, err)
		return
	}
	if bills == nil {
		bills = []models.BillRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills, "pagination": pg})
}

func billStatsHandler(c *gin.Context) {
	f, err := parseBillFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	stats, err := billingSvc.GetStats(c.Request.Context(), f)
	if err != nil {
		writeBillError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func getBillHandler(c *gin.Context) {
	no, err := strconv.ParseInt(c.Param("receiptNo"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid receipt number"})
		return
	}
	rec, err := billingSvc.GetBill(c.Request.Context(), no)
	if err != nil {
		writeBillError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func cancelBillHandler(c *gin.Context) {
	no, err := strconv.ParseInt(c.Param("receiptNo"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid receipt number"})
		return
	}
	rec, err := billingSvc.CancelBill(c.Request.Context(), no)
	if err != nil {
		writeBillError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func deleteBillHandler(c *gin.Context) {
	no, err := strconv.ParseInt(c.Param("receiptNo"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid receipt number"})
		return
	}
	if err := billingSvc.DeleteBill(c.Request.Context(), no); err != nil {
		writeBillError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bill deleted"})
}

// parseBillFilter reads the common filter query params shared by list and stats.
func parseBillFilter(c *gin.Context) (billing.Filter, error) {
	f := billing.Filter{
		Category:      c.Query("category"),
		AccountType:   c.Query("accountType"),
		PaymentMethod: c.Query("paymentMethod"),
		Status:        c.Query("status"),
		MemberID:      c.Query("memberId"),
	}
	if v := c.Query("from"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return f, errors.New("invalid from date")
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return f, errors.New("invalid to date")
		}
		f.To = &t
	}
	if v := c.Query("minAmount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid minAmount")
		}
		f.MinAmount = &n
	}
	if v := c.Query("maxAmount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid maxAmount")
		}
		f.MaxAmount = &n
	}
	return f, nil
}

func parseDateParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeBillError maps billing errors onto HTTP statuses. Validation failures
// happened before any side effect, so the client may simply fix and resubmit;
// a 500 after a reserved receipt number means the number is gone (gaps are
// fine, reuse is not).
func writeBillError(c *gin.Context, err error) {
	var ve *billing.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid bill request", "errors": ve.Fields})
		return
	}
	switch {
	case billing.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "bill not found"})
	case errors.Is(err, billing.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "bill operation failed"})
	}
}
