package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"time"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"

	"github.com/EPHRANCINA/farm-to-market-django/internal/database"
)

// UploadProductImage pousse l'image d'un produit dans MinIO et retourne le
// chemin objet stocké en base (pas d'autre traitement d'image).
func UploadProductImage(ctx context.Context, productID gocql.UUID, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := path.Join("products", productID.String()+path.Ext(file.Filename))

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

// GenerateSignedURL génère une URL de lecture temporaire pour un objet.
func GenerateSignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	u, err := database.MinIO.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
