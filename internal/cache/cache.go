package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/database"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

const (
	ProductCacheTTL = 10 * time.Minute
	UnreadCacheTTL  = 5 * time.Minute

	productsKey = "products:all"
)

// GetCachedProducts récupère le listing complet depuis Redis, nil si absent.
func GetCachedProducts(ctx context.Context) []models.Product {
	if database.Redis == nil {
		return nil
	}
	data, err := database.Redis.Get(ctx, productsKey).Result()
	if err != nil || data == "" {
		return nil
	}
	var products []models.Product
	if json.Unmarshal([]byte(data), &products) != nil {
		return nil
	}
	return products
}

func SetCachedProducts(ctx context.Context, products []models.Product) {
	if database.Redis == nil {
		return
	}
	if data, err := json.Marshal(products); err == nil {
		database.Redis.Set(ctx, productsKey, data, ProductCacheTTL)
	}
}

// InvalidateProducts purge le cache après toute mutation du catalogue
// (création, mise à jour, suppression, mouvement de stock).
func InvalidateProducts(ctx context.Context) {
	if database.Redis == nil {
		return
	}
	database.Redis.Del(ctx, productsKey)
}

func unreadKey(userID gocql.UUID) string {
	return "unread:" + userID.String()
}

// GetUnreadCount retourne le compteur en cache, -1 si absent.
func GetUnreadCount(ctx context.Context, userID gocql.UUID) int {
	if database.Redis == nil {
		return -1
	}
	data, err := database.Redis.Get(ctx, unreadKey(userID)).Result()
	if err != nil {
		return -1
	}
	count, err := strconv.Atoi(data)
	if err != nil {
		return -1
	}
	return count
}

func SetUnreadCount(ctx context.Context, userID gocql.UUID, count int) {
	if database.Redis == nil {
		return
	}
	database.Redis.Set(ctx, unreadKey(userID), strconv.Itoa(count), UnreadCacheTTL)
}

// InvalidateUnread purge le compteur du destinataire après envoi ou lecture.
func InvalidateUnread(ctx context.Context, userID gocql.UUID) {
	if database.Redis == nil {
		return
	}
	database.Redis.Del(ctx, unreadKey(userID))
}
