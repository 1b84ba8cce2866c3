package dispatch

import (
	"context"
	"fmt"
	"io"
	"time"

	"k8s.io/client-go/kubernetes"

	"match-scraper-ops/internal/kube"
	"match-scraper-ops/internal/model"
)

// Remote clones a one-off Job from the deployed CronJob and submits it.
// With Follow set it waits for the job's pod, streams its logs, and
// resolves the terminal condition.
type Remote struct {
	Client    kubernetes.Interface
	Namespace string
	// CronJob is the schedule definition one-off jobs are cloned from.
	CronJob string

	PodReadyTimeout time.Duration
	OutcomeTimeout  time.Duration

	Out io.Writer
	// Now stamps generated job names; nil means time.Now.
	Now func() time.Time
}

func (r *Remote) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run submits the one-off job. The returned record carries the
// submitted name and, when following, the job's terminal status.
func (r *Remote) Run(ctx context.Context, opts Options) (model.JobRecord, error) {
	cj, err := kube.GetCronJob(ctx, r.Client, r.Namespace, r.CronJob)
	if err != nil {
		return model.JobRecord{}, err
	}

	name := model.ManualJobName(r.CronJob, r.now())
	job := kube.JobFromCronJob(cj, name, opts.DryRun)
	created, err := kube.CreateJob(ctx, r.Client, job)
	if err != nil {
		return model.JobRecord{}, err
	}

	rec := model.JobRecord{
		Name:      created.Name,
		CreatedAt: r.now(),
		Source:    r.CronJob,
		Status:    "Submitted",
	}
	fmt.Fprintf(r.Out, "job %s/%s submitted\n", r.Namespace, rec.Name)

	if !opts.Follow {
		return rec, nil
	}

	pod, err := kube.WaitPodReady(ctx, r.Client, r.Namespace, rec.Name, r.PodReadyTimeout)
	if err != nil {
		// Stream anyway: the pod may produce logs before readiness is
		// reported.
		fmt.Fprintf(r.Out, "pod not ready within %s, attempting log stream\n", r.PodReadyTimeout)
	}
	if pod != "" {
		if serr := kube.StreamLogs(ctx, r.Client, r.Namespace, pod, r.Out); serr != nil {
			fmt.Fprintf(r.Out, "log stream ended: %v\n", serr)
		}
	} else {
		fmt.Fprintln(r.Out, "no pod found for job, skipping log stream")
	}

	outcome, _ := kube.JobOutcome(ctx, r.Client, r.Namespace, rec.Name, r.OutcomeTimeout)
	rec.Status = outcome
	fmt.Fprintf(r.Out, "job %s finished: %s\n", rec.Name, outcome)
	return rec, nil
}
