// Package monitoring turns a running frame loop into a web server that can be
// inspected and controlled from a browser.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/framesync/event"
	"github.com/sarchlab/framesync/frame"
	"github.com/sarchlab/framesync/idgen"
	"github.com/sarchlab/framesync/monitoring/web"
	"github.com/sarchlab/framesync/timer"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// frameTimeout bounds how long a request waits for the frame goroutine.
const frameTimeout = 2 * time.Second

var errTimerNotFound = errors.New("timer not found")

// Monitor can turn a frame loop into a server and allows external monitoring
// and controlling of the timers and dispatchers.
type Monitor struct {
	driver      *frame.Driver
	portNumber  int
	openBrowser bool
	assetDir    string

	lock        sync.Mutex
	groups      []*timer.Group
	dispatchers []*event.ThreadDispatcher

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor page in a browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// WithAssetDir serves the dashboard from dir instead of the embedded copy.
func (m *Monitor) WithAssetDir(dir string) *Monitor {
	m.assetDir = dir
	return m
}

// RegisterDriver registers the driver that runs the frames.
func (m *Monitor) RegisterDriver(d *frame.Driver) {
	m.driver = d
}

// RegisterTimerGroup registers a group whose timers are shown.
func (m *Monitor) RegisterTimerGroup(g *timer.Group) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.groups = append(m.groups, g)
}

// RegisterDispatcher registers a dispatcher whose queues are shown.
func (m *Monitor) RegisterDispatcher(d *event.ThreadDispatcher) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.dispatchers = append(m.dispatchers, d)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        idgen.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router serving the monitor API and pages.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now).Methods(http.MethodGet)
	r.HandleFunc("/api/pause", m.pauseDriver).Methods(http.MethodPost)
	r.HandleFunc("/api/continue", m.continueDriver).Methods(http.MethodPost)
	r.HandleFunc("/api/timescale/{scale}", m.setTimeScale).
		Methods(http.MethodPost)
	r.HandleFunc("/api/app/{state:pause|resume}", m.setApplicationPaused).
		Methods(http.MethodPost)
	r.HandleFunc("/api/timers", m.listTimers).Methods(http.MethodGet)
	r.HandleFunc("/api/timer/{name}", m.timerDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/timer/{name}/{action}", m.controlTimer).
		Methods(http.MethodPost)
	r.HandleFunc("/api/dispatchers", m.listDispatchers).
		Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(web.Handler(m.assetDir))

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring frames with %s\n", url)

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

type nowRsp struct {
	Frame     uint64  `json:"frame"`
	Time      float64 `json:"time"`
	TimeScale float64 `json:"time_scale"`
	Paused    bool    `json:"paused"`
	AppPaused bool    `json:"app_paused"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, nowRsp{
		Frame:     m.driver.FrameCount(),
		Time:      m.driver.Now(),
		TimeScale: m.driver.TimeScale(),
		Paused:    m.driver.IsPaused(),
		AppPaused: m.driver.IsApplicationPaused(),
	})
}

func (m *Monitor) pauseDriver(w http.ResponseWriter, _ *http.Request) {
	m.driver.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) continueDriver(w http.ResponseWriter, _ *http.Request) {
	m.driver.Continue()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) setTimeScale(w http.ResponseWriter, r *http.Request) {
	scale, err := strconv.ParseFloat(mux.Vars(r)["scale"], 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := m.driver.SetTimeScale(scale); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) setApplicationPaused(w http.ResponseWriter, r *http.Request) {
	m.driver.SetApplicationPaused(mux.Vars(r)["state"] == "pause")
	w.WriteHeader(http.StatusNoContent)
}

type timerRsp struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	State       string  `json:"state"`
	Count       uint32  `json:"count"`
	RepeatCount uint32  `json:"repeat_count"`
	Interval    float64 `json:"interval"`
	Elapsed     float64 `json:"elapsed"`
	Unscaled    bool    `json:"unscaled"`
}

func makeTimerRsp(t *timer.Timer) timerRsp {
	return timerRsp{
		ID:          t.ID(),
		Name:        t.Name(),
		State:       t.State().String(),
		Count:       t.CurrentCount(),
		RepeatCount: t.RepeatCount(),
		Interval:    t.Interval(),
		Elapsed:     t.Elapsed(),
		Unscaled:    t.IgnoreTimeScale(),
	}
}

func (m *Monitor) listTimers(w http.ResponseWriter, r *http.Request) {
	rsp := []timerRsp{}

	err := m.onFrame(r.Context(), func() {
		for _, g := range m.timerGroups() {
			g.ForEach(func(t *timer.Timer) {
				rsp = append(rsp, makeTimerRsp(t))
			})
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, rsp)
}

func (m *Monitor) timerDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	buf := bytes.NewBuffer(nil)

	var serializeErr error
	err := m.onFrame(r.Context(), func() {
		t := m.findTimer(name)
		if t == nil {
			serializeErr = errTimerNotFound
			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(t)
		serializer.SetMaxDepth(1)
		serializeErr = serializer.Serialize(buf)
	})

	switch {
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(serializeErr, errTimerNotFound):
		http.Error(w, "Timer not found", http.StatusNotFound)
	case serializeErr != nil:
		http.Error(w, serializeErr.Error(), http.StatusInternalServerError)
	default:
		w.Header().Set("Content-Type", "application/json")
		_, err = w.Write(buf.Bytes())
		dieOnErr(err)
	}
}

func (m *Monitor) controlTimer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	action, ok := timerActions[vars["action"]]
	if !ok {
		http.Error(w, "Unknown action "+vars["action"], http.StatusBadRequest)
		return
	}

	var (
		actionErr error
		rsp       timerRsp
	)

	err := m.onFrame(r.Context(), func() {
		t := m.findTimer(vars["name"])
		if t == nil {
			actionErr = errTimerNotFound
			return
		}

		actionErr = action(t)
		rsp = makeTimerRsp(t)
	})

	switch {
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(actionErr, errTimerNotFound):
		http.Error(w, "Timer not found", http.StatusNotFound)
	case errors.Is(actionErr, timer.ErrDisposed):
		http.Error(w, actionErr.Error(), http.StatusConflict)
	case actionErr != nil:
		http.Error(w, actionErr.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, rsp)
	}
}

var timerActions = map[string]func(t *timer.Timer) error{
	"start":  (*timer.Timer).Start,
	"resume": (*timer.Timer).Resume,
	"stop":   (*timer.Timer).Stop,
	"reset":  (*timer.Timer).Reset,
	"pause": func(t *timer.Timer) error {
		return t.Pause(false)
	},
}

// onFrame runs fn where the timers can be safely accessed.
func (m *Monitor) onFrame(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	return m.driver.Do(ctx, fn)
}

func (m *Monitor) timerGroups() []*timer.Group {
	m.lock.Lock()
	defer m.lock.Unlock()

	groups := make([]*timer.Group, len(m.groups))
	copy(groups, m.groups)

	return groups
}

func (m *Monitor) findTimer(name string) *timer.Timer {
	for _, g := range m.timerGroups() {
		if t := g.Find(name); t != nil {
			return t
		}
	}

	return nil
}

type dispatcherRsp struct {
	Name     string `json:"name"`
	Policy   string `json:"policy"`
	Queued   int    `json:"queued"`
	Pending  int    `json:"pending"`
	Draining bool   `json:"draining"`
}

func (m *Monitor) listDispatchers(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	dispatchers := make([]*event.ThreadDispatcher, len(m.dispatchers))
	copy(dispatchers, m.dispatchers)
	m.lock.Unlock()

	rsp := make([]dispatcherRsp, 0, len(dispatchers))
	for _, d := range dispatchers {
		rsp = append(rsp, dispatcherRsp{
			Name:     d.Name(),
			Policy:   d.FailurePolicy().String(),
			Queued:   d.Len(),
			Pending:  d.PendingLen(),
			Draining: d.IsDraining(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
