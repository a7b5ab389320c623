package webserver

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/member-gov/src/govd/data"
)

type Auth struct {
	rdb       *redis.Client
	jwtSecret []byte
}

func NewAuth(rdb *redis.Client, secret []byte) Auth {
	return Auth{rdb: rdb, jwtSecret: secret}
}

func randomHex32() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Challenge hands out a nonce the member signs with their sr25519 key.
func (a Auth) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required,min=32,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	nonce, err := randomHex32()
	if err != nil {
		log.Printf("Failed to create nonce: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}

	if err := data.SetNonce(c, a.rdb, req.Address, nonce); err != nil {
		log.Printf("Failed to set nonce for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Verify checks the signed nonce and issues a bearer token.
func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address"   binding:"required,min=32,max=128"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	nonce, err := data.GetNonce(c, a.rdb, req.Address)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "challenge expired or not found"})
		return
	}

	if err := verifySignature(req.Address, req.Signature, nonce); err != nil {
		log.Printf("Signature verification failed for %s: %v", req.Address, err)
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad signature"})
		return
	}
	data.DelNonce(c, a.rdb, req.Address)

	token, err := issueJWT(req.Address, a.jwtSecret)
	if err != nil {
		log.Printf("Failed to issue JWT for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
