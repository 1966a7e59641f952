package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mpcrecovery/envconfig/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

func replaceLine(content, before, after string) string {
	return strings.Replace(content, before, after, 1)
}

const validConfig = `
env: "dev"
project: "pagoda-discovery-platform-dev"
docker_image: "near/mpc-recovery:latest"
account_creator_id: "mpc-recovery-dev-creator.testnet"
account_creator_sk_secret_id: "mpc-recovery-account-creator-sk-dev"
fast_auth_partners_secret_id: "mpc-fast-auth-partners-dev"
signer_configs:
  - cipher_key_secret_id: "mpc-cipher-0-dev"
    sk_share_secret_id: "mpc-sk-share-0-dev"
  - cipher_key_secret_id: "mpc-cipher-1-dev"
    sk_share_secret_id: "mpc-sk-share-1-dev"
  - cipher_key_secret_id: "mpc-cipher-2-dev"
    sk_share_secret_id: "mpc-sk-share-2-dev"
jwt_signature_pk_url: "https://securetoken.google.com/pagoda-onboarding-dev"
otlp_endpoint: "http://localhost:4317"
opentelemetry_level: "debug"
`

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
	})

	writeConfig := func(content string) string {
		configPath := filepath.Join(tempDir, "config.yaml")
		err := os.WriteFile(configPath, []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
		return configPath
	}

	Describe("Load", func() {
		Context("with a valid config file in the working directory", func() {
			BeforeEach(func() {
				writeConfig(validConfig)
				Expect(os.Chdir(tempDir)).To(Succeed())
			})

			It("should load the configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse the deployment identity", func() {
				cfg, _ := config.Load()
				Expect(cfg.Env).To(Equal("dev"))
				Expect(cfg.Project).To(Equal("pagoda-discovery-platform-dev"))
				Expect(cfg.DockerImage).To(Equal("near/mpc-recovery:latest"))
			})

			It("should keep all three signer configs in order", func() {
				cfg, _ := config.Load()
				Expect(cfg.SignerConfigs).To(HaveLen(3))
				Expect(cfg.SignerConfigs[0].CipherKeySecretID).To(Equal("mpc-cipher-0-dev"))
				Expect(cfg.SignerConfigs[1].SKShareSecretID).To(Equal("mpc-sk-share-1-dev"))
				Expect(cfg.SignerConfigs[2].CipherKeySecretID).To(Equal("mpc-cipher-2-dev"))
			})

			It("should parse the telemetry settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.OTLPEndpoint).To(Equal("http://localhost:4317"))
				Expect(cfg.OpenTelemetryLevel).To(Equal(config.LevelDebug))
			})
		})

		Context("with no config file present", func() {
			It("should fail to load", func() {
				Expect(os.Chdir(tempDir)).To(Succeed())
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("LoadFile", func() {
		It("should load from an explicit path", func() {
			configPath := writeConfig(validConfig)
			cfg, err := config.LoadFile(configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.SignerConfigs).To(HaveLen(3))
		})

		Context("validation failures", func() {
			It("should fail with MissingFieldError when project is absent", func() {
				configPath := writeConfig(`
env: "dev"
docker_image: "near/mpc-recovery:latest"
account_creator_id: "mpc-recovery-dev-creator.testnet"
account_creator_sk_secret_id: "mpc-recovery-account-creator-sk-dev"
fast_auth_partners_secret_id: "mpc-fast-auth-partners-dev"
signer_configs:
  - cipher_key_secret_id: "mpc-cipher-0-dev"
    sk_share_secret_id: "mpc-sk-share-0-dev"
jwt_signature_pk_url: "https://securetoken.google.com/pagoda-onboarding-dev"
otlp_endpoint: "http://localhost:4317"
opentelemetry_level: "debug"
`)
				_, err := config.LoadFile(configPath)
				var missing *config.MissingFieldError
				Expect(errors.As(err, &missing)).To(BeTrue())
				Expect(missing.Field).To(Equal("project"))
			})

			It("should fail with MissingFieldError naming the signer index", func() {
				configPath := writeConfig(`
env: "dev"
project: "pagoda-discovery-platform-dev"
docker_image: "near/mpc-recovery:latest"
account_creator_id: "mpc-recovery-dev-creator.testnet"
account_creator_sk_secret_id: "mpc-recovery-account-creator-sk-dev"
fast_auth_partners_secret_id: "mpc-fast-auth-partners-dev"
signer_configs:
  - cipher_key_secret_id: "mpc-cipher-0-dev"
    sk_share_secret_id: "mpc-sk-share-0-dev"
  - cipher_key_secret_id: "mpc-cipher-1-dev"
jwt_signature_pk_url: "https://securetoken.google.com/pagoda-onboarding-dev"
otlp_endpoint: "http://localhost:4317"
opentelemetry_level: "debug"
`)
				_, err := config.LoadFile(configPath)
				var missing *config.MissingFieldError
				Expect(errors.As(err, &missing)).To(BeTrue())
				Expect(missing.Field).To(Equal("signer_configs[1].sk_share_secret_id"))
			})

			It("should fail with MalformedValueError for a bad image reference", func() {
				configPath := writeConfig(replaceLine(validConfig,
					`docker_image: "near/mpc-recovery:latest"`,
					`docker_image: "not-a-valid-ref"`))
				_, err := config.LoadFile(configPath)
				var malformed *config.MalformedValueError
				Expect(errors.As(err, &malformed)).To(BeTrue())
				Expect(malformed.Field).To(Equal("docker_image"))
			})

			It("should fail with EmptyListError for an empty signer list", func() {
				configPath := writeConfig(`
env: "dev"
project: "pagoda-discovery-platform-dev"
docker_image: "near/mpc-recovery:latest"
account_creator_id: "mpc-recovery-dev-creator.testnet"
account_creator_sk_secret_id: "mpc-recovery-account-creator-sk-dev"
fast_auth_partners_secret_id: "mpc-fast-auth-partners-dev"
signer_configs: []
jwt_signature_pk_url: "https://securetoken.google.com/pagoda-onboarding-dev"
otlp_endpoint: "http://localhost:4317"
opentelemetry_level: "debug"
`)
				_, err := config.LoadFile(configPath)
				var empty *config.EmptyListError
				Expect(errors.As(err, &empty)).To(BeTrue())
				Expect(empty.Field).To(Equal("signer_configs"))
			})

			It("should fail with MalformedValueError for an unknown level", func() {
				configPath := writeConfig(replaceLine(validConfig,
					`opentelemetry_level: "debug"`,
					`opentelemetry_level: "verbose"`))
				_, err := config.LoadFile(configPath)
				var malformed *config.MalformedValueError
				Expect(errors.As(err, &malformed)).To(BeTrue())
				Expect(malformed.Field).To(Equal("opentelemetry_level"))
				Expect(malformed.Value).To(Equal("verbose"))
			})

			It("should fail with MalformedValueError for a bad URL", func() {
				configPath := writeConfig(replaceLine(validConfig,
					`otlp_endpoint: "http://localhost:4317"`,
					`otlp_endpoint: "localhost:4317"`))
				_, err := config.LoadFile(configPath)
				var malformed *config.MalformedValueError
				Expect(errors.As(err, &malformed)).To(BeTrue())
				Expect(malformed.Field).To(Equal("otlp_endpoint"))
			})
		})
	})

	Describe("YAML round-trip", func() {
		It("should reload an identical record from the canonical form", func() {
			configPath := writeConfig(validConfig)
			cfg, err := config.LoadFile(configPath)
			Expect(err).NotTo(HaveOccurred())

			data, err := cfg.YAML()
			Expect(err).NotTo(HaveOccurred())

			canonicalPath := filepath.Join(tempDir, "canonical.yaml")
			Expect(os.WriteFile(canonicalPath, data, 0644)).To(Succeed())

			reloaded, err := config.LoadFile(canonicalPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded).To(Equal(cfg))
		})
	})
})

var _ = Describe("ParseImageRef", func() {
	It("should split registry, path, and tag", func() {
		ref, err := config.ParseImageRef("near/mpc-recovery:latest")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.Registry).To(Equal("near"))
		Expect(ref.Path).To(Equal("mpc-recovery"))
		Expect(ref.Tag).To(Equal("latest"))
	})

	It("should keep the port with the registry", func() {
		ref, err := config.ParseImageRef("registry.example.com:5000/team/app:v1.2")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.Registry).To(Equal("registry.example.com:5000"))
		Expect(ref.Path).To(Equal("team/app"))
		Expect(ref.Tag).To(Equal("v1.2"))
	})

	It("should reject references without a registry", func() {
		_, err := config.ParseImageRef("mpc-recovery:latest")
		Expect(err).To(HaveOccurred())
	})

	It("should reject references without a tag", func() {
		_, err := config.ParseImageRef("near/mpc-recovery")
		Expect(err).To(HaveOccurred())
	})

	It("should reject references with an empty tag", func() {
		_, err := config.ParseImageRef("near/mpc-recovery:")
		Expect(err).To(HaveOccurred())
	})

	It("should reject a port-only colon as a tag separator", func() {
		_, err := config.ParseImageRef("registry.example.com:5000/app")
		Expect(err).To(HaveOccurred())
	})
})
