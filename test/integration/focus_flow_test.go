//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"focusguard/internal/daemon"
	"focusguard/internal/domain"
	"focusguard/internal/infra"
	"focusguard/internal/policy"
	"focusguard/internal/usecase"
	"focusguard/test/fixtures"
)

// nopSettings stands in for the desktop toggles; the hosts file is
// the real thing under test here.
type nopSettings struct{}

func (nopSettings) SetNotificationBanners(ctx context.Context, show bool) error { return nil }
func (nopSettings) SetAudioMuted(ctx context.Context, muted bool) error         { return nil }
func (nopSettings) SetDockPinned(ctx context.Context, pinned bool) error        { return nil }

var _ = Describe("Focus enforcement", func() {
	const seedHosts = "127.0.0.1 localhost\n::1 localhost\n"

	var (
		tmpDir    string
		hostsPath string
		blocker   *infra.HostsBlocker
		store     *infra.SessionStore
		engine    *policy.Engine
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		hostsPath = filepath.Join(tmpDir, "hosts")
		Expect(os.WriteFile(hostsPath, []byte(seedHosts), 0644)).To(Succeed())
		blocker = infra.NewHostsBlockerWithPath(hostsPath)

		var err error
		store, err = infra.NewSessionStore(filepath.Join(tmpDir, "sessions.db"))
		Expect(err).NotTo(HaveOccurred())

		engine = policy.NewEngine(domain.PolicyConfig{
			DistractingApps: []string{"youtube"},
			ProductiveApps:  []string{"code"},
		}, policy.Schedule{})
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	newOrchestrator := func(source domain.ActivitySource) *daemon.Orchestrator {
		effector := usecase.NewSystemEffector(blocker, nopSettings{}, zap.NewNop())
		return daemon.NewOrchestrator(
			daemon.OrchestratorConfig{
				PollInterval: 20 * time.Millisecond,
				BlockedSites: []string{"youtube.com", "reddit.com"},
			},
			source, engine, effector, store,
			infra.NewStatusFile(filepath.Join(tmpDir, "status.json")),
			zap.NewNop(),
		)
	}

	Context("when a distracting app gains focus", func() {
		It("blocks the configured sites and records one session", func() {
			source := fixtures.NewStreamSource("code", "code", "youtube", "youtube", "code")
			orch := newOrchestrator(source)

			Expect(orch.Start(context.Background())).To(Succeed())
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				Expect(orch.Shutdown(ctx)).To(Succeed())
			}()

			// Focus mode engages on the first youtube sample.
			Eventually(func() domain.FocusState {
				return orch.Status().State
			}, time.Second, 5*time.Millisecond).Should(Equal(domain.StateActive))

			data, err := os.ReadFile(hostsPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("127.0.0.1 youtube.com"))
			Expect(string(data)).To(ContainSubstring("127.0.0.1 reddit.com"))

			// The trailing code sample reverts everything.
			Eventually(func() domain.FocusState {
				return orch.Status().State
			}, time.Second, 5*time.Millisecond).Should(Equal(domain.StateIdle))

			Eventually(func() string {
				data, _ := os.ReadFile(hostsPath)
				return string(data)
			}, time.Second, 5*time.Millisecond).Should(Equal(seedHosts))

			sessions, err := store.Recent(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].AppName).To(Equal("youtube"))
			Expect(sessions[0].EndedAt).NotTo(BeNil())
		})
	})

	Context("when the process restarts mid-focus", func() {
		It("cleans up the hosts block left by the previous run", func() {
			// Simulate the crash: a marker block is on disk but this
			// effector instance never entered focus.
			Expect(blocker.Block([]string{"youtube.com"})).To(Succeed())

			effector := usecase.NewSystemEffector(blocker, nopSettings{}, zap.NewNop())
			Expect(effector.ExitFocus(context.Background())).To(Succeed())

			data, err := os.ReadFile(hostsPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(seedHosts))
		})
	})

	Context("when the daemon shuts down while focus mode is active", func() {
		It("closes the session and restores the hosts file", func() {
			source := fixtures.NewStreamSource("youtube")
			orch := newOrchestrator(source)

			Expect(orch.Start(context.Background())).To(Succeed())

			Eventually(func() domain.FocusState {
				return orch.Status().State
			}, time.Second, 5*time.Millisecond).Should(Equal(domain.StateActive))

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			Expect(orch.Shutdown(ctx)).To(Succeed())

			data, err := os.ReadFile(hostsPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(seedHosts))

			sessions, err := store.Recent(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].EndedAt).NotTo(BeNil())
		})
	})
})
