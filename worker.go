package gpchw

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"time"
)

// workerEnv names the environment variable that marks a process as a
// worker. Its value is the name of the puppet to host.
const workerEnv = "GPCHW_WORKER"

// parentEnv carries the pid of the process that started the worker.
const parentEnv = "GPCHW_PARENT_PID"

// Child file descriptors of the request and response pipes. Extra files
// start after stdin, stdout and stderr.
const (
	workerRequestFD  = 3
	workerResponseFD = 4
)

const defaultGracePeriod = 5 * time.Second

// WorkerOptions configures the process started by NewProxy. The zero value
// re-executes the current binary with no arguments.
type WorkerOptions struct {
	// Executable is the binary to start. It must call ServeIfWorker before
	// doing anything else. Defaults to os.Executable().
	Executable string

	// Args are passed to the worker after the executable name.
	Args []string

	// Env holds extra environment variables for the worker.
	Env map[string]string

	// Stdout receives the worker's standard output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives the worker's standard error. When nil, each line is
	// logged with the puppet name as prefix.
	Stderr io.Writer

	// GracePeriod is how long Terminate waits for a clean exit before
	// signalling the worker, and again before killing it. Defaults to 5s.
	GracePeriod time.Duration
}

// workerProcess is a started worker.
type workerProcess struct {
	name  string
	cmd   *exec.Cmd
	grace time.Duration

	done    chan struct{}
	waitErr error
}

func startWorker(name string, opts *WorkerOptions) (*workerProcess, Transport, error) {
	if name == "" {
		return nil, nil, fmt.Errorf("%w: empty puppet name", ErrValidation)
	}
	if opts == nil {
		opts = &WorkerOptions{}
	}

	exe := opts.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, nil, fmt.Errorf("locating worker executable: %w", err)
		}
	}

	// Requests flow parent to child, responses child to parent.
	reqReader, reqWriter, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	respReader, respWriter, err := os.Pipe()
	if err != nil {
		reqReader.Close()
		reqWriter.Close()
		return nil, nil, err
	}
	closeAll := func() {
		reqReader.Close()
		reqWriter.Close()
		respReader.Close()
		respWriter.Close()
	}

	cmd := exec.Command(exe, opts.Args...)
	if err := setExtraFiles(cmd, []*os.File{reqReader, respWriter}); err != nil {
		closeAll()
		return nil, nil, err
	}

	cmd.Env = append(os.Environ(), workerEnv+"="+name, parentEnv+"="+strconv.Itoa(os.Getpid()))
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	var stderr io.ReadCloser
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	} else if stderr, err = cmd.StderrPipe(); err != nil {
		closeAll()
		return nil, nil, err
	}

	if err := cmd.Start(); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("starting worker for %q: %w", name, err)
	}

	// The child holds its own copies now.
	reqReader.Close()
	respWriter.Close()

	// Wait closes the stderr pipe, so every line must be read before it runs.
	stderrDone := make(chan struct{})
	if stderr != nil {
		go func() {
			defer close(stderrDone)
			scanner := bufio.NewScanner(stderr)
			for scanner.Scan() {
				log.Printf("gpchw: worker %s: %s", name, scanner.Text())
			}
		}()
	} else {
		close(stderrDone)
	}

	grace := opts.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	wp := &workerProcess{
		name:  name,
		cmd:   cmd,
		grace: grace,
		done:  make(chan struct{}),
	}
	go func() {
		<-stderrDone
		wp.waitErr = waitForExit(cmd)
		close(wp.done)
	}()

	setupSignalHandler(wp)

	return wp, NewMsgpackTransport(respReader, reqWriter), nil
}

// stop waits for the worker to exit on its own, then asks it to terminate,
// then kills it.
func (wp *workerProcess) stop() error {
	select {
	case <-wp.done:
		return wp.waitErr
	case <-time.After(wp.grace):
	}

	log.Printf("gpchw: worker %s did not exit, terminating", wp.name)
	if err := terminateProcess(wp.cmd.Process); err != nil {
		log.Printf("gpchw: terminating worker %s: %v", wp.name, err)
	}

	select {
	case <-wp.done:
	case <-time.After(wp.grace):
		wp.cmd.Process.Kill()
		<-wp.done
	}
	return wp.waitErr
}

// kill stops the worker without waiting for a clean exit.
func (wp *workerProcess) kill() {
	select {
	case <-wp.done:
		return
	default:
	}
	terminateProcess(wp.cmd.Process)
	select {
	case <-wp.done:
	case <-time.After(wp.grace):
		wp.cmd.Process.Kill()
		<-wp.done
	}
}

// setupSignalHandler takes the worker down with the parent when the parent
// is interrupted, then delivers the signal again so the parent still exits.
func setupSignalHandler(wp *workerProcess) {
	signalChan := make(chan os.Signal, 1)
	setSignalsForChannel(signalChan)

	go func() {
		defer signal.Stop(signalChan)
		select {
		case sig := <-signalChan:
			wp.kill()
			signal.Stop(signalChan)
			reraise(sig)
		case <-wp.done:
		}
	}()
}

// ServeIfWorker turns the current process into a worker when it was started
// by NewProxy, and does nothing otherwise. A worker serves its puppet until
// the proxy terminates it and then exits the process, so ServeIfWorker must
// be the first call in main (or TestMain):
//
//	func main() {
//		gpchw.ServeIfWorker()
//		...
//	}
func ServeIfWorker() {
	name, ok := os.LookupEnv(workerEnv)
	if !ok {
		return
	}
	parent, _ := strconv.Atoi(os.Getenv(parentEnv))
	// Processes the worker starts itself are not workers.
	os.Unsetenv(workerEnv)
	os.Unsetenv(parentEnv)

	bindToParent(parent)

	if err := runWorker(name); err != nil {
		log.Printf("gpchw: worker %s: %v", name, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func runWorker(name string) error {
	requests := os.NewFile(workerRequestFD, "gpchw-requests")
	responses := os.NewFile(workerResponseFD, "gpchw-responses")
	if requests == nil || responses == nil {
		return fmt.Errorf("%w: worker pipes are missing", ErrChannelClosed)
	}

	factory, ok := lookupPuppet(name)
	if !ok {
		// Report the failure through the channel so the caller gets it as a
		// RemoteError instead of a bare EOF.
		factory = func() (Puppet, error) {
			return nil, fmt.Errorf("%w: no puppet registered as %q", ErrNotRegistered, name)
		}
	}
	return NewHost(NewMsgpackTransport(requests, responses), factory).Serve()
}
