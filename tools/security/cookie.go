package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// 会话 cookie 采用 "s:<sid>.<sig>" 格式（与 express cookie-signature 兼容，
// 老的 Node 端客户端/网关可以混跑）。sig = base64(HMAC-SHA256(sid, secret))，
// 去掉 '=' padding。

const signedPrefix = "s:"

// SignCookie 生成带签名的 cookie 值
func SignCookie(value string, secret []byte) string {
	return signedPrefix + value + "." + cookieSig(value, secret)
}

// UnsignCookie 校验签名并取出原始值；签名不合法/格式不对返回 false。
// 缺失与伪造在调用方同等对待，这里不区分原因。
func UnsignCookie(raw string, secret []byte) (string, bool) {
	if !strings.HasPrefix(raw, signedPrefix) {
		return "", false
	}
	body := raw[len(signedPrefix):]
	dot := strings.LastIndexByte(body, '.')
	if dot <= 0 || dot == len(body)-1 {
		return "", false
	}
	value := body[:dot]
	sig := body[dot+1:]
	if !hmac.Equal([]byte(sig), []byte(cookieSig(value, secret))) {
		return "", false
	}
	return value, true
}

func cookieSig(value string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(value))
	s := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return strings.TrimRight(s, "=")
}
