package checks

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"match-scraper-ops/internal/kube"
	"match-scraper-ops/internal/model"
	"match-scraper-ops/internal/preflight"
)

// Prod builds the cluster registry. Everything here is a read; there
// is no remediation against a production cluster.
func Prod(d Deps) (*preflight.Registry, error) {
	return preflight.NewRegistry(
		kubeContext(d),
		clusterAPI(d),
		namespace(d),
		cronJob(d),
		secret(d),
		deployment(d, "proxy-deployment", d.Cfg.ProxyDeployment),
		deployment(d, "rabbitmq", d.Cfg.BrokerDeployment),
		deployment(d, "worker-deployment", d.Cfg.WorkerDeployment),
	)
}

func kubeContext(d Deps) preflight.Check {
	return preflight.Check{
		Name: "kube-context",
		Probe: func(ctx context.Context) model.Probe {
			name, err := kube.CurrentContext("", d.Cfg.KubeContext)
			if err != nil {
				return model.Fail(err.Error())
			}
			return model.Pass("context " + name)
		},
	}
}

func clusterAPI(d Deps) preflight.Check {
	return preflight.Check{
		Name:      "cluster-api",
		DependsOn: []string{"kube-context"},
		Probe: func(ctx context.Context) model.Probe {
			if d.Kube == nil {
				return model.Fail(fmt.Sprintf("cluster client unavailable: %v", d.KubeErr))
			}
			ver, err := d.Kube.Discovery().ServerVersion()
			if err != nil {
				return model.Fail(fmt.Sprintf("cluster API unreachable: %v", err))
			}
			return model.Pass("server " + ver.GitVersion)
		},
	}
}

func namespace(d Deps) preflight.Check {
	ns := d.Cfg.Namespace
	return preflight.Check{
		Name:      "namespace",
		DependsOn: []string{"cluster-api"},
		Probe: func(ctx context.Context) model.Probe {
			_, err := d.Kube.CoreV1().Namespaces().Get(ctx, ns, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				return model.Fail(fmt.Sprintf("namespace %s not found, create it: kubectl create namespace %s", ns, ns))
			}
			if err != nil {
				return model.Fail(err.Error())
			}
			return model.Pass("namespace " + ns)
		},
	}
}

func cronJob(d Deps) preflight.Check {
	return preflight.Check{
		Name:      "cronjob",
		DependsOn: []string{"namespace"},
		Probe: func(ctx context.Context) model.Probe {
			cj, err := kube.GetCronJob(ctx, d.Kube, d.Cfg.Namespace, d.Cfg.CronJob)
			if err != nil {
				return model.Fail(err.Error())
			}
			return model.Pass(fmt.Sprintf("schedule %q", cj.Spec.Schedule))
		},
	}
}

func secret(d Deps) preflight.Check {
	name := d.Cfg.SecretName
	return preflight.Check{
		Name:      "secret",
		DependsOn: []string{"namespace"},
		Probe: func(ctx context.Context) model.Probe {
			s, err := d.Kube.CoreV1().Secrets(d.Cfg.Namespace).Get(ctx, name, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				return model.Fail(fmt.Sprintf("secret %s not found, run opsctl secrets and apply the manifest", name))
			}
			if err != nil {
				return model.Fail(err.Error())
			}
			return model.Pass(fmt.Sprintf("%d key(s)", len(s.Data)+len(s.StringData)))
		},
	}
}

func deployment(d Deps, checkName, deployName string) preflight.Check {
	return preflight.Check{
		Name:      checkName,
		DependsOn: []string{"namespace"},
		Probe: func(ctx context.Context) model.Probe {
			dep, err := d.Kube.AppsV1().Deployments(d.Cfg.Namespace).Get(ctx, deployName, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				return model.Fail(fmt.Sprintf("deployment %s not found", deployName))
			}
			if err != nil {
				return model.Fail(err.Error())
			}

			want := int32(1)
			if dep.Spec.Replicas != nil {
				want = *dep.Spec.Replicas
			}
			ready := dep.Status.ReadyReplicas
			switch {
			case ready == 0:
				return model.Fail(fmt.Sprintf("%s: 0 of %d replicas ready", deployName, want))
			case ready < want:
				return model.Warn(fmt.Sprintf("%s: %d of %d replicas ready", deployName, ready, want))
			default:
				return model.Pass(fmt.Sprintf("%s: %d/%d replicas ready", deployName, ready, want))
			}
		},
	}
}
