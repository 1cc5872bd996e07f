package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"time"

	"github.com/golang-jwt/jwt/v4"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustMarshalPKIXPublicKey(pub *rsa.PublicKey) []byte {
	der, err := x509.MarshalPKIXPublicKey(pub)
	Expect(err).NotTo(HaveOccurred())
	return der
}

var _ = Describe("Authenticator", func() {
	Context("bypass mode", func() {
		It("resolves the dev principal when no token is supplied", func() {
			a := &Authenticator{BypassEnabled: true}

			userID, err := a.Authenticate("")

			Expect(err).NotTo(HaveOccurred())
			Expect(userID).To(Equal(DevPrincipal))
		})

		It("derives a principal from an unvalidated token instead of the dev default", func() {
			a := &Authenticator{BypassEnabled: true}

			userID, err := a.Authenticate("Bearer not-a-real-jwt")

			Expect(err).NotTo(HaveOccurred())
			Expect(userID).NotTo(BeEmpty())
			Expect(userID).NotTo(Equal(DevPrincipal))
		})
	})

	Context("non-bypass mode", func() {
		It("rejects an empty token", func() {
			a := &Authenticator{BypassEnabled: false, SecretKey: "secret"}

			_, err := a.Authenticate("")

			Expect(err).To(HaveOccurred())
		})
	})

	Context("HS256 tokens", func() {
		It("accepts a validly signed token and extracts the subject", func() {
			secret := "top-secret"
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "clinician-42",
				"exp": time.Now().Add(time.Hour).Unix(),
			})
			signed, err := token.SignedString([]byte(secret))
			Expect(err).NotTo(HaveOccurred())

			a := &Authenticator{BypassEnabled: false, SecretKey: secret}
			userID, err := a.Authenticate("Bearer " + signed)

			Expect(err).NotTo(HaveOccurred())
			Expect(userID).To(Equal("clinician-42"))
		})

		It("rejects an expired token", func() {
			secret := "top-secret"
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "clinician-42",
				"exp": time.Now().Add(-time.Hour).Unix(),
			})
			signed, err := token.SignedString([]byte(secret))
			Expect(err).NotTo(HaveOccurred())

			a := &Authenticator{BypassEnabled: false, SecretKey: secret}
			_, err = a.Authenticate(signed)

			Expect(err).To(HaveOccurred())
		})
	})

	Context("RS256 tokens", func() {
		It("accepts a validly signed token with a matching issuer", func() {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			Expect(err).NotTo(HaveOccurred())
			pubPEM := pem.EncodeToMemory(&pem.Block{
				Type:  "PUBLIC KEY",
				Bytes: mustMarshalPKIXPublicKey(&key.PublicKey),
			})

			token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
				"user_id": "clinician-7",
				"iss":     "smilearc",
				"exp":     time.Now().Add(time.Hour).Unix(),
			})
			signed, err := token.SignedString(key)
			Expect(err).NotTo(HaveOccurred())

			a := &Authenticator{BypassEnabled: false, PublicKeyPEM: string(pubPEM), Issuer: "smilearc"}
			userID, err := a.Authenticate(signed)

			Expect(err).NotTo(HaveOccurred())
			Expect(userID).To(Equal("clinician-7"))
		})

		It("rejects a token signed with the wrong issuer", func() {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			Expect(err).NotTo(HaveOccurred())
			pubPEM := pem.EncodeToMemory(&pem.Block{
				Type:  "PUBLIC KEY",
				Bytes: mustMarshalPKIXPublicKey(&key.PublicKey),
			})

			token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
				"sub": "clinician-7",
				"iss": "someone-else",
				"exp": time.Now().Add(time.Hour).Unix(),
			})
			signed, err := token.SignedString(key)
			Expect(err).NotTo(HaveOccurred())

			a := &Authenticator{BypassEnabled: false, PublicKeyPEM: string(pubPEM), Issuer: "smilearc"}
			_, err = a.Authenticate(signed)

			Expect(err).To(HaveOccurred())
		})
	})
})
