package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	JazzCashSandboxURL = "https://sandbox.jazzcash.com.pk/CustomerPortal/transactionmanagement/merchantform/"

	jazzCashHashField = "pp_SecureHash"
	jazzCashSuccess   = "000"
	jazzCashTimeFmt   = "20060102150405"
)

// SignJazzCash computes pp_SecureHash: upper-case hex HMAC-SHA256 keyed by the
// integrity salt over "salt&v1&v2..." where v are the non-empty pp_ values in
// key order.
func SignJazzCash(fields map[string]string, salt string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if !strings.HasPrefix(k, "pp_") || k == jazzCashHashField || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(salt)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(fields[k])
	}

	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

func validJazzCash(fields map[string]string, salt string) bool {
	got := strings.ToUpper(strings.TrimSpace(fields[jazzCashHashField]))
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(got), []byte(SignJazzCash(fields, salt)))
}

// jazzCashRef fits the 20 character pp_TxnRefNo limit.
func jazzCashRef(checkoutID string) string {
	ref := "T" + strings.ReplaceAll(checkoutID, "-", "")
	if len(ref) > 20 {
		ref = ref[:20]
	}
	return ref
}
