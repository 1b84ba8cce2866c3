package kube

import (
	"context"
	"fmt"
	"io"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"match-scraper-ops/internal/errdefs"
	"match-scraper-ops/internal/poll"
)

// instantiateAnnotation marks jobs cloned from a CronJob by hand, the
// same marker kubectl create job --from sets.
const instantiateAnnotation = "cronjob.kubernetes.io/instantiate"

// GetCronJob fetches the schedule definition a one-off job is cloned
// from. A missing CronJob is a config error with deploy guidance.
func GetCronJob(ctx context.Context, cs kubernetes.Interface, namespace, name string) (*batchv1.CronJob, error) {
	cj, err := cs.BatchV1().CronJobs(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, errdefs.Configf(
				fmt.Sprintf("deploy it first: kubectl apply -n %s -f manifests/", namespace),
				"cronjob %s/%s not found", namespace, name)
		}
		return nil, errdefs.External(fmt.Sprintf("get cronjob %s/%s", namespace, name), err)
	}
	return cj, nil
}

// JobFromCronJob clones a one-off Job from the CronJob's job template.
// With dryRun set, the first container's argument vector is patched to
// carry --dry-run before the object is ever submitted, so the cluster
// only sees the final form.
func JobFromCronJob(cj *batchv1.CronJob, name string, dryRun bool) *batchv1.Job {
	annotations := map[string]string{instantiateAnnotation: "manual"}
	for k, v := range cj.Spec.JobTemplate.Annotations {
		if k != instantiateAnnotation {
			annotations[k] = v
		}
	}

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Namespace:   cj.Namespace,
			Labels:      cj.Spec.JobTemplate.Labels,
			Annotations: annotations,
		},
		Spec: *cj.Spec.JobTemplate.Spec.DeepCopy(),
	}
	if dryRun {
		ensureDryRunArg(job)
	}
	return job
}

// ensureDryRunArg forces the workload into its non-mutating mode.
func ensureDryRunArg(job *batchv1.Job) {
	containers := job.Spec.Template.Spec.Containers
	if len(containers) == 0 {
		return
	}
	for _, arg := range containers[0].Args {
		if arg == "--dry-run" {
			return
		}
	}
	containers[0].Args = append(containers[0].Args, "--dry-run")
}

// CreateJob submits the cloned job.
func CreateJob(ctx context.Context, cs kubernetes.Interface, job *batchv1.Job) (*batchv1.Job, error) {
	created, err := cs.BatchV1().Jobs(job.Namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return nil, errdefs.External(fmt.Sprintf("create job %s/%s", job.Namespace, job.Name), err)
	}
	return created, nil
}

// WaitPodReady polls for a pod belonging to the job to reach a phase
// with logs available (Running or already terminated). On timeout it
// returns whatever pod name it saw last along with a timeout error, so
// the caller can still attempt streaming.
func WaitPodReady(ctx context.Context, cs kubernetes.Interface, namespace, jobName string, timeout time.Duration) (string, error) {
	var podName string
	ok, _ := poll.Until(ctx, 2*time.Second, timeout, func(ctx context.Context) bool {
		pods, err := cs.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
			LabelSelector: "job-name=" + jobName,
		})
		if err != nil || len(pods.Items) == 0 {
			return false
		}
		pod := pods.Items[0]
		podName = pod.Name
		switch pod.Status.Phase {
		case corev1.PodRunning, corev1.PodSucceeded, corev1.PodFailed:
			return true
		}
		return false
	})
	if !ok {
		return podName, errdefs.Timeout(fmt.Sprintf("pod for job %s not ready within %s", jobName, timeout))
	}
	return podName, nil
}

// StreamLogs follows the pod's log to w until the stream closes.
func StreamLogs(ctx context.Context, cs kubernetes.Interface, namespace, podName string, w io.Writer) error {
	req := cs.CoreV1().Pods(namespace).GetLogs(podName, &corev1.PodLogOptions{Follow: true})
	rc, err := req.Stream(ctx)
	if err != nil {
		return errdefs.External(fmt.Sprintf("stream logs for pod %s", podName), err)
	}
	defer rc.Close()
	if _, err := io.Copy(w, rc); err != nil {
		return errdefs.External(fmt.Sprintf("copy logs for pod %s", podName), err)
	}
	return nil
}

// JobOutcome polls the job until a terminal condition appears or the
// timeout passes. It returns "Complete", "Failed", or the last phase
// seen when nothing terminal showed up in time.
func JobOutcome(ctx context.Context, cs kubernetes.Interface, namespace, name string, timeout time.Duration) (string, error) {
	outcome := "Unknown"
	poll.Until(ctx, 2*time.Second, timeout, func(ctx context.Context) bool {
		job, err := cs.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false
		}
		for _, cond := range job.Status.Conditions {
			if cond.Status != corev1.ConditionTrue {
				continue
			}
			switch cond.Type {
			case batchv1.JobComplete:
				outcome = "Complete"
				return true
			case batchv1.JobFailed:
				outcome = "Failed"
				return true
			}
		}
		if job.Status.Active > 0 {
			outcome = "Active"
		}
		return false
	})
	if outcome == "Unknown" || outcome == "Active" {
		return outcome, errdefs.Timeout(fmt.Sprintf("job %s has no terminal condition after %s", name, timeout))
	}
	return outcome, nil
}
