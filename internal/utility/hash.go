package utility

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// tokenEncoding là base64 với altchars "xy" thay cho "+/" để token
// không chứa ký tự đặc biệt. Token không bao giờ cần decode lại.
var tokenEncoding = base64.StdEncoding.WithPadding(base64.NoPadding)

func replaceAltChars(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch c {
		case '+':
			out[i] = 'x'
		case '/':
			out[i] = 'y'
		}
	}
	return string(out)
}

// HashAuthToken hash token xác thực bằng HMAC-SHA256 và encode base64.
// Token chỉ được lưu ở dạng hash này.
func HashAuthToken(token string, hmacKey []byte) string {
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte(token))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// GenerateToken sinh token ngẫu nhiên 32 bytes, encode base64 với altchars xy.
// Prefix (nếu có) được nối vào đầu để dễ nhận diện loại token.
func GenerateToken(prefix string) (string, error) {
	randomBits := make([]byte, 32)
	if _, err := rand.Read(randomBits); err != nil {
		return "", err
	}
	return prefix + replaceAltChars(tokenEncoding.EncodeToString(randomBits)), nil
}

// GenerateShortCode sinh short code với độ dài cho trước từ random bytes.
// Base64 sẽ nở ra so với số bytes, cắt về đúng length sau khi encode.
func GenerateShortCode(length int) (string, error) {
	bits := make([]byte, length)
	if _, err := rand.Read(bits); err != nil {
		return "", err
	}
	code := replaceAltChars(tokenEncoding.EncodeToString(bits))
	if len(code) > length {
		code = code[:length]
	}
	return code, nil
}

// HashPassword hash password cho local auth: bcrypt trên base64(sha256(password)).
// SHA256 trước để password dài hơn 72 bytes không bị bcrypt cắt.
func HashPassword(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	hashed, err := bcrypt.GenerateFromPassword([]byte(encoded), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword kiểm tra password với hash đã lưu
func VerifyPassword(password, hashedPassword string) bool {
	sum := sha256.Sum256([]byte(password))
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(encoded)) == nil
}
