package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-appimage/aimctl/pkg/types"
)

func writeTempFile(content []byte) string {
	dir := GinkgoT().TempDir()
	path := filepath.Join(dir, "app.AppImage")
	Expect(os.WriteFile(path, content, 0o644)).To(Succeed())
	return path
}

// VerifyFile covers the verification decision tree: digest and
// checksum-file methods run independently, and the overall outcome follows
// how many of the attempted methods agree.
var _ = Describe("VerifyFile", func() {
	It("verifies via digest alone (scenario 1)", func() {
		payload := []byte("the quick brown fox")
		path := writeTempFile(payload)
		digest := "sha256:" + sha256Hex(string(payload))

		result := VerifyFile(context.Background(), Request{
			FilePath: path,
			Asset:    types.Asset{Name: "app.AppImage", Digest: digest},
		})

		Expect(result.Status).To(Equal(types.VerificationVerified))
		Expect(result.Warning).To(BeEmpty())
		Expect(result.Methods).To(HaveLen(1))
		Expect(result.Methods[0].OK).To(BeTrue())
	})

	It("verifies when digest and checksum file both pass (scenario 2)", func() {
		payload := []byte("app payload bytes")
		path := writeTempFile(payload)
		hexSum := sha256Hex(string(payload))
		digest := "sha256:" + hexSum

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(hexSum + "  app-x86_64.AppImage\n"))
		}))
		defer srv.Close()

		asset := types.Asset{Name: "app-x86_64.AppImage", Digest: digest}
		allAssets := []types.Asset{asset, {Name: "SHA256SUMS", BrowserDownloadURL: srv.URL}}

		result := VerifyFile(context.Background(), Request{
			FilePath:  path,
			Asset:     asset,
			AllAssets: allAssets,
		})

		Expect(result.Status).To(Equal(types.VerificationVerified))
		Expect(result.Warning).To(BeEmpty())
		Expect(result.Methods).To(HaveLen(2))
		for _, m := range result.Methods {
			Expect(m.OK).To(BeTrue())
		}
	})

	It("treats a failing digest with a passing checksum file as a partial verification (scenario 3)", func() {
		payload := []byte("app payload bytes")
		path := writeTempFile(payload)
		hexSum := sha256Hex(string(payload))

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(hexSum + "  app-x86_64.AppImage\n"))
		}))
		defer srv.Close()

		asset := types.Asset{Name: "app-x86_64.AppImage", Digest: "sha256:" + strings.Repeat("0", 64)}
		allAssets := []types.Asset{asset, {Name: "SHA256SUMS", BrowserDownloadURL: srv.URL}}

		result := VerifyFile(context.Background(), Request{
			FilePath:  path,
			Asset:     asset,
			AllAssets: allAssets,
		})

		Expect(result.Status).To(Equal(types.VerificationVerified))
		Expect(result.Warning).To(ContainSubstring("Partial"))
	})

	It("fails hard when both digest and checksum file disagree (scenario 4)", func() {
		payload := []byte("app payload bytes")
		path := writeTempFile(payload)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("1", 64) + "  app-x86_64.AppImage\n"))
		}))
		defer srv.Close()

		asset := types.Asset{Name: "app-x86_64.AppImage", Digest: "sha256:" + strings.Repeat("0", 64)}
		allAssets := []types.Asset{asset, {Name: "SHA256SUMS", BrowserDownloadURL: srv.URL}}

		result := VerifyFile(context.Background(), Request{
			FilePath:  path,
			Asset:     asset,
			AllAssets: allAssets,
		})

		Expect(result.Status).To(Equal(types.VerificationFailed))
	})

	It("proceeds with a warning when no verification method is available (scenario 5)", func() {
		payload := []byte("app payload bytes")
		path := writeTempFile(payload)
		asset := types.Asset{Name: "app-x86_64.AppImage"}

		result := VerifyFile(context.Background(), Request{
			FilePath: path,
			Asset:    asset,
		})

		Expect(result.Status).To(Equal(types.VerificationUnverified))
		Expect(result.Warning).To(ContainSubstring("not verified"))
	})

	Context("skip verification requests", func() {
		It("honors skip when no strong method is available", func() {
			payload := []byte("app payload bytes")
			path := writeTempFile(payload)
			asset := types.Asset{Name: "app-x86_64.AppImage"}

			result := VerifyFile(context.Background(), Request{
				FilePath: path,
				Asset:    asset,
				Config:   types.VerificationConfig{SkipVerification: true},
			})

			Expect(result.Status).To(Equal(types.VerificationUnverified))
		})

		It("overrides skip when a strong method exists", func() {
			payload := []byte("app payload bytes")
			path := writeTempFile(payload)
			digest := "sha256:" + sha256Hex(string(payload))
			asset := types.Asset{Name: "app-x86_64.AppImage", Digest: digest}

			result := VerifyFile(context.Background(), Request{
				FilePath: path,
				Asset:    asset,
				Config:   types.VerificationConfig{SkipVerification: true},
			})

			Expect(result.Status).To(Equal(types.VerificationVerified))
			Expect(result.Config.SkipVerification).To(BeFalse())
		})
	})

	It("skips checksum-file auto-detection once an explicit digest is authoritative", func() {
		payload := []byte("app payload bytes")
		path := writeTempFile(payload)
		digest := "sha256:" + sha256Hex(string(payload))
		asset := types.Asset{Name: "app-x86_64.AppImage", Digest: digest}

		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, _ = w.Write([]byte(sha256Hex(string(payload)) + "  app-x86_64.AppImage\n"))
		}))
		defer srv.Close()

		allAssets := []types.Asset{asset, {Name: "SHA256SUMS", BrowserDownloadURL: srv.URL}}

		result := VerifyFile(context.Background(), Request{
			FilePath:  path,
			Asset:     asset,
			Config:    types.VerificationConfig{Digest: true},
			AllAssets: allAssets,
		})

		Expect(called).To(BeFalse())
		Expect(result.Methods).To(HaveLen(1))
	})
})

var _ = Describe("resolveConfiguredChecksumFile", func() {
	It("substitutes {asset_name}/{version} placeholders and defaults to line-oriented format", func() {
		req := Request{
			Asset:  types.Asset{Name: "app-x86_64.AppImage"},
			Owner:  "owner",
			Repo:   "repo",
			Tag:    "v1.2.3",
			Config: types.VerificationConfig{ChecksumFile: "{asset_name}-{version}.sha256sums"},
		}

		info := resolveConfiguredChecksumFile(req)

		wantName := "app-x86_64.AppImage-v1.2.3.sha256sums"
		Expect(info.Asset.Name).To(Equal(wantName))
		Expect(info.Asset.BrowserDownloadURL).To(Equal("https://github.com/owner/repo/releases/download/v1.2.3/" + wantName))
		Expect(info.Format).To(Equal(types.ChecksumFormatLine))
	})

	It("treats a .yml suffix as a structured manifest", func() {
		req := Request{
			Asset:  types.Asset{Name: "app.AppImage"},
			Owner:  "owner",
			Repo:   "repo",
			Tag:    "v1.0.0",
			Config: types.VerificationConfig{ChecksumFile: "latest-linux.yml"},
		}
		info := resolveConfiguredChecksumFile(req)
		Expect(info.Format).To(Equal(types.ChecksumFormatStructured))
	})
})
