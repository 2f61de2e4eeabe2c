package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
	"github.com/EPHRANCINA/farm-to-market-django/internal/utils"
)

// Register crée un compte fermier ou acheteur.
func (a *API) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	if req.Role != models.RoleFarmer && req.Role != models.RoleBuyer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le rôle doit être 'farmer' ou 'buyer'"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Erreur hash mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	user := models.User{
		ID:        gocql.TimeUUID(),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hash,
		Name:      req.Name,
		Role:      req.Role,
		CreatedAt: time.Now(),
	}

	if err := a.Store.InsertUser(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		log.Printf("❌ Erreur génération JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	log.Printf("✅ Compte créé: %s (%s)", user.Email, user.Role)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Compte créé avec succès",
		"token":   token,
		"user":    user,
	})
}

// Login vérifie les identifiants et délivre un JWT.
func (a *API) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	user, err := a.Store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(*user)
	if err != nil {
		log.Printf("❌ Erreur génération JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me retourne le profil de l'acteur connecté.
func (a *API) Me(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	user, err := a.Store.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
